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
	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/expression"
	"github.com/flatbase/flatsql/sql/index"
	"github.com/flatbase/flatsql/sql/plan"
	"github.com/flatbase/flatsql/vfs"
)

// executeTableScan reads the driving table sequentially. A single rowid
// predicate turns into a jump to a starting rowid; anything else goes
// through the driver's (or generic) predicate scan.
func executeTableScan(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	src := q.Tables[0].Source

	if len(step.Predicates) == 1 && isRowidRangePredicate(src, &step.Predicates[0]) {
		start, limit := rowidRange(&step.Predicates[0], step.Limit)
		capacity := limit
		if capacity < 0 {
			capacity = src.RecordCount() - start
		}
		list := sql.NewRowList(1, capacity)
		vfs.FullAccess(src, list, start, limit)
		set.Push(list)
		return nil
	}

	list := sql.NewRowList(1, stepCapacity(step, src))
	set.Push(list)
	return vfs.FullScan(ctx, src, list, step.Predicates, step.Limit)
}

// isRowidRangePredicate reports whether a predicate is `rowid <op>
// constant` on a source whose rowids are plain positions.
func isRowidRangePredicate(src sql.Source, p *sql.Predicate) bool {
	if _, scans := src.(sql.TableScanner); scans {
		// Sources with their own scan narrow ranges themselves.
		return false
	}
	return p.Left.Function == sql.FuncUnity &&
		p.Left.Fields[0].Index == sql.FieldRowIndex &&
		p.Right.Fields[0].Index == sql.FieldConstant &&
		p.Op != sql.OpLike && p.Op != sql.OpNe
}

// rowidRange turns a rowid predicate into a starting rowid and limit.
func rowidRange(p *sql.Predicate, limit int) (int, int) {
	value := cast.ToInt(p.Right.Fields[0].Text)

	switch p.Op {
	case sql.OpEq:
		return value, 1
	case sql.OpLt:
		return 0, minLimit(limit, value)
	case sql.OpLe:
		return 0, minLimit(limit, value+1)
	case sql.OpGt:
		return value + 1, limit
	case sql.OpGe:
		return value, limit
	}
	return 0, limit
}

func minLimit(limit, bound int) int {
	if limit > -1 && limit < bound {
		return limit
	}
	return bound
}

// executeTableAccessRowid re-filters the current row list in place. The
// compacting write position never overtakes the read position, so rows
// stay readable until they are matched or skipped.
func executeTableAccessRowid(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	count := list.RowCount
	list.Reset()

	for i := 0; i < count; i++ {
		match, err := expression.MatchesRow(ctx, q, list, i, step.Predicates)
		if err != nil {
			return err
		}
		if match {
			list.CopyRowFrom(list, i)
			if step.Limit > -1 && list.RowCount >= step.Limit {
				break
			}
		}
	}

	list.TrimToRowCount()
	set.Push(list)
	return nil
}

// executePrimarySeek drives PK and PK_RANGE: a binary search directly on
// the driving table's key column, rowids implicit.
func executePrimarySeek(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	src := q.Tables[0].Source
	p := &step.Predicates[0]

	list := sql.NewRowList(1, stepCapacity(step, src))
	set.Push(list)

	pkColumn := p.Left.Fields[0].Index
	if pkColumn < 0 && pkColumn != sql.FieldRowIndex {
		pkColumn = 0
	}

	return index.PrimarySeek(src, pkColumn, p.Op, p.Right.Fields[0].Text, list, step.Limit)
}

func executeUniqueSeek(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	table := &q.Tables[0]
	p := &step.Predicates[0]

	idx, _, err := vfs.OpenIndex(table.Name, vfs.BareColumn(p.Left.Fields[0].Text), sql.IndexUnique)
	if err != nil {
		return err
	}
	defer idx.Close()

	list := sql.NewRowList(1, stepCapacity(step, idx))
	set.Push(list)

	rowidColumn := idx.FieldIndex("rowid")
	return index.UniqueSeek(idx, rowidColumn, p.Op, p.Right.Fields[0].Text, list, step.Limit)
}

func executeIndexSeek(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	table := &q.Tables[0]
	p := &step.Predicates[0]

	idx, _, err := vfs.OpenIndex(table.Name, vfs.BareColumn(p.Left.Fields[0].Text), sql.IndexNone)
	if err != nil {
		return err
	}
	defer idx.Close()

	list := sql.NewRowList(1, stepCapacity(step, idx))
	set.Push(list)

	rowidColumn := idx.FieldIndex("rowid")
	return index.Seek(idx, rowidColumn, p.Op, p.Right.Fields[0].Text, list, step.Limit)
}

// executeIndexScan walks an entire index in stored order, for ORDER BY and
// GROUP BY satisfaction.
func executeIndexScan(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	table := &q.Tables[0]
	p := &step.Predicates[0]

	idx, _, err := vfs.OpenIndex(table.Name, vfs.BareColumn(p.Left.Fields[0].Text), sql.IndexNone)
	if err != nil {
		return err
	}
	defer idx.Close()

	list := sql.NewRowList(1, stepCapacity(step, idx))
	set.Push(list)

	rowidColumn := idx.FieldIndex("rowid")
	return index.Scan(idx, rowidColumn, list, step.Limit)
}
