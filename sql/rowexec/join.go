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

package rowexec

import (
	"fmt"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/expression"
	"github.com/flatbase/flatsql/sql/index"
	"github.com/flatbase/flatsql/sql/plan"
	"github.com/flatbase/flatsql/vfs"
)

// executeCrossJoin pairs every left row with every row of the next table.
func executeCrossJoin(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	tableID := list.JoinCount
	next := q.Tables[tableID].Source
	recordCount := next.RecordCount()

	joined := sql.NewRowList(list.JoinCount+1, list.RowCount*recordCount)

rows:
	for i := 0; i < list.RowCount; i++ {
		for j := 0; j < recordCount; j++ {
			joined.AppendJoined(list, i, j)
			if step.Limit > -1 && joined.RowCount >= step.Limit {
				break rows
			}
		}
	}

	set.Push(joined)
	return nil
}

// executeConstantJoin selects the next table's rows once by a constant
// predicate and attaches them to every left row.
func executeConstantJoin(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	tableID := list.JoinCount

	p := &step.Predicates[0]
	if p.Left.Fields[0].TableID != tableID && p.Right.Fields[0].TableID != tableID {
		return fmt.Errorf("cannot perform constant join at join position %d", tableID)
	}

	next := q.Tables[tableID].Source

	tmp := sql.NewRowList(1, next.RecordCount())
	if err := vfs.FullScan(ctx, next, tmp, step.Predicates, -1); err != nil {
		return err
	}

	joined := sql.NewRowList(list.JoinCount+1, list.RowCount*tmp.RowCount)

rows:
	for i := 0; i < list.RowCount; i++ {
		for j := 0; j < tmp.RowCount; j++ {
			joined.AppendJoined(list, i, tmp.RowID(0, j))
			if step.Limit > -1 && joined.RowCount >= step.Limit {
				break rows
			}
		}
	}

	set.Push(joined)
	return nil
}

// executeLoopJoin scans the next table once per left row, substituting the
// left side's value as a constant into the join predicate.
func executeLoopJoin(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	tableID := list.JoinCount
	table := &q.Tables[tableID]
	next := table.Source
	recordCount := next.RecordCount()

	joined := sql.NewRowList(list.JoinCount+1, list.RowCount*recordCount)
	tmp := sql.NewRowList(1, recordCount)

rows:
	for i := 0; i < list.RowCount; i++ {
		// A fresh copy per row: one side becomes a constant.
		p := step.Predicates[0]

		if p.Left.Fields[0].TableID < tableID {
			value, err := expression.Evaluate(ctx, q, list, i, &p.Left)
			if err != nil {
				return err
			}
			p.Left = constantNode(value)
		} else if p.Right.Fields[0].TableID < tableID {
			value, err := expression.Evaluate(ctx, q, list, i, &p.Right)
			if err != nil {
				return err
			}
			p.Right = constantNode(value)
		}

		tmp.Truncate(0)
		if err := vfs.FullScan(ctx, next, tmp, []sql.Predicate{p}, -1); err != nil {
			return err
		}

		for j := 0; j < tmp.RowCount; j++ {
			joined.AppendJoined(list, i, tmp.RowID(0, j))
			if step.Limit > -1 && joined.RowCount >= step.Limit {
				break rows
			}
		}

		if table.JoinKind == sql.JoinLeft && tmp.RowCount == 0 {
			joined.AppendJoined(list, i, sql.RowIDNull)
		}
	}

	set.Push(joined)
	return nil
}

// executeUniqueJoin point-looks-up the next table by a unique index, one
// probe per left row.
func executeUniqueJoin(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	tableID := list.JoinCount
	table := &q.Tables[tableID]

	outer, inner, err := joinSides(&step.Predicates[0], tableID)
	if err != nil {
		return err
	}

	idx, _, err := vfs.OpenIndex(table.Name, vfs.BareColumn(inner.Fields[0].Text), sql.IndexUnique)
	if err != nil {
		return err
	}
	defer idx.Close()
	rowidColumn := idx.FieldIndex("rowid")

	joined := sql.NewRowList(list.JoinCount+1, list.RowCount)

	for i := 0; i < list.RowCount; i++ {
		value, err := expression.Evaluate(ctx, q, list, i, outer)
		if err != nil {
			return err
		}

		rowID, found, err := index.Lookup(idx, rowidColumn, value)
		if err != nil {
			return err
		}

		if found {
			joined.AppendJoined(list, i, rowID)
		} else if table.JoinKind == sql.JoinLeft {
			joined.AppendJoined(list, i, sql.RowIDNull)
		}

		if step.Limit > -1 && joined.RowCount >= step.Limit {
			break
		}
	}

	set.Push(joined)
	return nil
}

// executeIndexJoin range-looks-up the next table by a non-unique index,
// one seek per left row.
func executeIndexJoin(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	tableID := list.JoinCount
	table := &q.Tables[tableID]

	outer, inner, err := joinSides(&step.Predicates[0], tableID)
	if err != nil {
		return err
	}

	idx, _, err := vfs.OpenIndex(table.Name, vfs.BareColumn(inner.Fields[0].Text), sql.IndexNone)
	if err != nil {
		return err
	}
	defer idx.Close()
	rowidColumn := idx.FieldIndex("rowid")

	joined := sql.NewRowList(list.JoinCount+1, list.RowCount)
	tmp := sql.NewRowList(1, idx.RecordCount())

rows:
	for i := 0; i < list.RowCount; i++ {
		value, err := expression.Evaluate(ctx, q, list, i, outer)
		if err != nil {
			return err
		}

		tmp.Truncate(0)
		if err := index.Seek(idx, rowidColumn, sql.OpEq, value, tmp, -1); err != nil {
			return err
		}

		for j := 0; j < tmp.RowCount; j++ {
			joined.AppendJoined(list, i, tmp.RowID(0, j))
			if step.Limit > -1 && joined.RowCount >= step.Limit {
				break rows
			}
		}

		if table.JoinKind == sql.JoinLeft && tmp.RowCount == 0 {
			joined.AppendJoined(list, i, sql.RowIDNull)
		}
	}

	set.Push(joined)
	return nil
}

// joinSides splits a join predicate into the outer side (already-joined
// tables) and the inner side (the table being joined).
func joinSides(p *sql.Predicate, tableID int) (outer, inner *sql.ColumnNode, err error) {
	switch {
	case p.Left.Fields[0].TableID == tableID:
		outer, inner = &p.Right, &p.Left
	case p.Right.Fields[0].TableID == tableID:
		outer, inner = &p.Left, &p.Right
	default:
		return nil, nil, fmt.Errorf("cannot join: predicate does not reference table %d", tableID)
	}

	if outer.Fields[0].TableID >= tableID {
		return nil, nil, fmt.Errorf("cannot join: both predicate sides belong to unjoined tables")
	}
	return outer, inner, nil
}

func constantNode(value string) sql.ColumnNode {
	return sql.ColumnNode{
		Function: sql.FuncUnity,
		Fields:   [2]sql.Field{sql.ConstantField(value), sql.NewField("")},
	}
}
