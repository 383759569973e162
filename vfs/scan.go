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

package vfs

import (
	"fmt"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/expression"
)

// FullScan appends every rowid of src matching the predicates, in natural
// order, bounded by limit. Sources implementing sql.TableScanner take over;
// everything else gets row-at-a-time evaluation. Predicate fields must be
// resolved relative to src (table id 0).
func FullScan(ctx *sql.Context, src sql.Source, list *sql.RowList, predicates []sql.Predicate, limit int) error {
	if scanner, ok := src.(sql.TableScanner); ok {
		return scanner.ScanTable(ctx, list, predicates, limit)
	}

	count := src.RecordCount()
	for i := 0; i < count; i++ {
		match, err := matchesRecord(ctx, src, i, predicates)
		if err != nil {
			return err
		}
		if match {
			list.Append(i)
		}
		if limit >= 0 && list.RowCount >= limit {
			break
		}
	}
	return nil
}

// FullAccess appends rowids start..start+n in natural order with no
// filtering, bounded by limit.
func FullAccess(src sql.Source, list *sql.RowList, startRowID, limit int) {
	count := src.RecordCount()
	for i := startRowID; i < count; i++ {
		list.Append(i)
		if limit >= 0 && list.RowCount >= limit {
			break
		}
	}
}

func matchesRecord(ctx *sql.Context, src sql.Source, rowID int, predicates []sql.Predicate) (bool, error) {
	for i := range predicates {
		p := &predicates[i]

		left, err := evaluateAgainst(ctx, src, rowID, &p.Left)
		if err != nil {
			return false, err
		}
		right, err := evaluateAgainst(ctx, src, rowID, &p.Right)
		if err != nil {
			return false, err
		}

		if !expression.EvaluateOp(p.Op, left, right) {
			return false, nil
		}
	}
	return true, nil
}

// evaluateAgainst evaluates a predicate side against a single source,
// ignoring table ids: scans only ever see their own table's predicates.
func evaluateAgainst(ctx *sql.Context, src sql.Source, rowID int, col *sql.ColumnNode) (string, error) {
	f := col.Fields[0]

	switch {
	case f.Index == sql.FieldConstant:
		return expression.ApplyFunction(ctx, col, expression.EvaluateConstant(ctx, col))

	case f.Index == sql.FieldRowIndex:
		return fmt.Sprintf("%d", rowID), nil

	case f.Index >= 0:
		value, err := src.RecordValue(rowID, f.Index)
		if err != nil {
			return "", err
		}
		return expression.ApplyFunction(ctx, col, value)
	}

	panic(fmt.Sprintf("vfs: cannot evaluate predicate column '%s' during scan", f.Text))
}
