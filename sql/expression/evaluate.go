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

// Package expression evaluates column nodes, scalar and aggregate
// functions, and predicate comparisons over row lists. All values move as
// strings; NULL is the empty string.
package expression

import (
	"fmt"

	"github.com/flatbase/flatsql/sql"
)

// Evaluate computes the string value of a resolved column node for row
// index of list. Evaluating an unresolved node is a programming error and
// panics.
func Evaluate(ctx *sql.Context, q *sql.Query, list *sql.RowList, index int, col *sql.ColumnNode) (string, error) {
	field := col.Fields[0]

	switch {
	case field.Index == sql.FieldRowIndex:
		rowID := list.RowID(field.TableID, index)
		if rowID == sql.RowIDNull {
			return "", nil
		}
		return fmt.Sprintf("%d", rowID), nil

	case field.Index == sql.FieldRowNumber:
		return fmt.Sprintf("%d", index+1), nil

	case field.Index == sql.FieldConstant:
		value := EvaluateConstant(ctx, col)
		return ApplyFunction(ctx, col, value)

	case field.Index >= 0:
		rowID := list.RowID(field.TableID, index)
		if rowID == sql.RowIDNull {
			return "", nil
		}
		value, err := q.Tables[field.TableID].Source.RecordValue(rowID, field.Index)
		if err != nil {
			return "", err
		}
		return ApplyFunction(ctx, col, value)
	}

	panic(fmt.Sprintf("expression: cannot evaluate column '%s'", field.Text))
}

// EvaluateConstant resolves a constant node's literal, substituting the
// date pseudo-literals against the context clock.
func EvaluateConstant(ctx *sql.Context, col *sql.ColumnNode) string {
	if col.Fields[0].Index != sql.FieldConstant {
		panic(fmt.Sprintf("expression: tried to evaluate non-constant '%s' as constant", col.Fields[0].Text))
	}

	text := col.Fields[0].Text
	if text == "CURRENT_DATE" || text == "TODAY()" {
		now := ctx.Now()
		return fmt.Sprintf("%04d-%02d-%02d", now.Year(), int(now.Month()), now.Day())
	}
	return text
}

// MatchesRow reports whether row index of list satisfies every predicate.
func MatchesRow(ctx *sql.Context, q *sql.Query, list *sql.RowList, index int, predicates []sql.Predicate) (bool, error) {
	for i := range predicates {
		p := &predicates[i]

		left, err := Evaluate(ctx, q, list, index, &p.Left)
		if err != nil {
			return false, err
		}
		right, err := Evaluate(ctx, q, list, index, &p.Right)
		if err != nil {
			return false, err
		}

		if !EvaluateOp(p.Op, left, right) {
			return false, nil
		}
	}
	return true, nil
}
