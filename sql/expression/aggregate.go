// Copyright 2023-2024 Flatbase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expression

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/sql"
)

// EvaluateAggregate computes an aggregate node over a whole row list. NULL
// (empty) values are skipped; a MIN/MAX over nothing is NULL. AVG is an
// integer average.
func EvaluateAggregate(ctx *sql.Context, q *sql.Query, list *sql.RowList, col *sql.ColumnNode) (string, error) {
	if !col.Function.IsAggregate() {
		panic(fmt.Sprintf("expression: '%s' is not an aggregate", col.Alias))
	}

	field := col.Fields[0]

	readValue := func(i int) (string, error) {
		rowID := list.RowID(field.TableID, i)
		if rowID == sql.RowIDNull {
			return "", nil
		}
		return q.Tables[field.TableID].Source.RecordValue(rowID, field.Index)
	}

	switch col.Function {
	case sql.FuncAggCount:
		count := 0
		for i := 0; i < list.RowCount; i++ {
			value, err := readValue(i)
			if err != nil {
				return "", err
			}
			if value != "" {
				count++
			}
		}
		return fmt.Sprintf("%d", count), nil

	case sql.FuncAggMin:
		min := int64(math.MaxInt64)
		found := false
		for i := 0; i < list.RowCount; i++ {
			value, err := readValue(i)
			if err != nil {
				return "", err
			}
			if value == "" {
				continue
			}
			v := cast.ToInt64(value)
			if !found || v < min {
				min = v
				found = true
			}
		}
		if !found {
			return "", nil
		}
		return fmt.Sprintf("%d", min), nil

	case sql.FuncAggMax:
		max := int64(math.MinInt64)
		found := false
		for i := 0; i < list.RowCount; i++ {
			value, err := readValue(i)
			if err != nil {
				return "", err
			}
			if value == "" {
				continue
			}
			v := cast.ToInt64(value)
			if !found || v > max {
				max = v
				found = true
			}
		}
		if !found {
			return "", nil
		}
		return fmt.Sprintf("%d", max), nil

	case sql.FuncAggAvg:
		var sum int64
		count := 0
		for i := 0; i < list.RowCount; i++ {
			value, err := readValue(i)
			if err != nil {
				return "", err
			}
			if value == "" {
				continue
			}
			sum += cast.ToInt64(value)
			count++
		}
		if count == 0 {
			return "", nil
		}
		return fmt.Sprintf("%d", sum/int64(count)), nil

	case sql.FuncAggListAgg:
		var parts []string
		for i := 0; i < list.RowCount; i++ {
			value, err := readValue(i)
			if err != nil {
				return "", err
			}
			if value != "" {
				parts = append(parts, value)
			}
		}
		return strings.Join(parts, ","), nil
	}

	return "", sql.ErrUnknownFunction.New(col.Alias)
}
