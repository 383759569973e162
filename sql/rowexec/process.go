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
	"sort"
	"strings"

	"github.com/flatbase/flatsql/output"
	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/analyzer"
	"github.com/flatbase/flatsql/sql/expression"
	"github.com/flatbase/flatsql/sql/plan"
)

// rowSorter adapts a RowList to sort.Interface with a key comparator over
// evaluated column values.
type rowSorter struct {
	ctx   *sql.Context
	q     *sql.Query
	list  *sql.RowList
	nodes []sql.ColumnNode
	dirs  []sql.Order
	err   error
}

func (s *rowSorter) Len() int {
	return s.list.RowCount
}

func (s *rowSorter) Swap(i, j int) {
	s.list.Swap(i, j)
}

func (s *rowSorter) Less(i, j int) bool {
	for k := range s.nodes {
		a, err := expression.Evaluate(s.ctx, s.q, s.list, i, &s.nodes[k])
		if err != nil && s.err == nil {
			s.err = err
		}
		b, err := expression.Evaluate(s.ctx, s.q, s.list, j, &s.nodes[k])
		if err != nil && s.err == nil {
			s.err = err
		}

		cmp := sql.CompareValues(a, b)
		if cmp == 0 {
			continue
		}
		if s.dirs[k] == sql.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// executeSort reorders the top row list by the step's key nodes.
func executeSort(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	for i := range step.SortNodes {
		if err := analyzer.ResolveNode(q, &step.SortNodes[i]); err != nil {
			return err
		}
	}

	list := set.Pop()
	sorter := &rowSorter{
		ctx:   ctx,
		q:     q,
		list:  list,
		nodes: step.SortNodes,
		dirs:  step.SortDirs,
	}
	sort.Stable(sorter)
	if sorter.err != nil {
		return sorter.err
	}

	set.Push(list)
	return nil
}

func executeReverse(step *plan.Step, set *sql.ResultSet) error {
	list := set.Pop()
	list.Reverse(step.Limit)
	set.Push(list)
	return nil
}

func executeSlice(step *plan.Step, set *sql.ResultSet) error {
	// The offset itself is taken care of at SELECT.
	list := set.Pop()
	list.Truncate(step.Limit)
	set.Push(list)
	return nil
}

// executeGroup splits the (already sorted) top list into one list per
// equal-key run, pushing each group. Bounded by limit groups.
func executeGroup(ctx *sql.Context, q *sql.Query, step *plan.Step, set *sql.ResultSet) error {
	for i := range step.SortNodes {
		if err := analyzer.ResolveNode(q, &step.SortNodes[i]); err != nil {
			return err
		}
	}

	list := set.Pop()

	limit := list.RowCount
	if step.Limit > -1 && step.Limit < limit {
		limit = step.Limit
	}

	var current *sql.RowList
	prevKey := ""
	groups := 0

	for i := 0; i < list.RowCount; i++ {
		key, err := groupKey(ctx, q, list, i, step.SortNodes)
		if err != nil {
			return err
		}

		if current == nil || key != prevKey {
			if groups >= limit {
				break
			}
			current = sql.NewRowList(list.JoinCount, list.RowCount-i)
			set.Push(current)
			groups++
			prevKey = key
		}

		current.CopyRowFrom(list, i)
	}

	return nil
}

func groupKey(ctx *sql.Context, q *sql.Query, list *sql.RowList, index int, nodes []sql.ColumnNode) (string, error) {
	values := make([]string, len(nodes))
	for i := range nodes {
		v, err := expression.Evaluate(ctx, q, list, index, &nodes[i])
		if err != nil {
			return "", err
		}
		values[i] = v
	}
	return strings.Join(values, "\x1f"), nil
}

// executeSelect drains the stack bottom-up and emits output. Grouped
// queries print one line per list; everything else iterates the rows of
// each list from the query offset.
func executeSelect(ctx *sql.Context, q *sql.Query, set *sql.ResultSet, out *output.Writer) (int, error) {
	rowCount := 0

	for set.Len() > 0 {
		list := set.PopBottom()

		if q.Flags&sql.FlagGroup != 0 {
			// One aggregate line per group. The offset picks the
			// representative row inside the group.
			index := q.Offset
			if index >= list.RowCount {
				index = list.RowCount - 1
			}
			if err := out.ResultLine(ctx, q, list, index); err != nil {
				return rowCount, err
			}
			rowCount++
			continue
		}

		for i := q.Offset; i < list.RowCount; i++ {
			if err := out.ResultLine(ctx, q, list, i); err != nil {
				return rowCount, err
			}
			rowCount++
		}
	}

	return rowCount, nil
}
