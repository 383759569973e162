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

package plan

import "github.com/flatbase/flatsql/sql"

// Per-column sort requirement bits.
const (
	sortNone    = 0
	sortSort    = 1
	sortReverse = 2
)

// addOrderSteps appends the sort machinery the ORDER BY clause still
// needs, given what the access path already guarantees.
func addOrderSteps(p *Plan, q *sql.Query) {
	if q.Flags&sql.FlagOrder == 0 {
		return
	}
	// Grouping queries cannot be sorted in the same pass; the engine
	// rewrites GROUP+ORDER into two queries.
	if q.Flags&sql.FlagGroup != 0 {
		return
	}

	var needed [sql.MaxOrderColumns]int
	direction, added := applySortLogic(q, p, &needed)

	if added == 0 {
		// Maybe a bare reverse is still required.
		if len(q.OrderNodes) > 0 && needed[0]&sortReverse != 0 {
			p.add(StepReverse)
		}
		return
	}

	if added > 1 && direction >= 0 {
		// Uniform direction: one multi-key sort.
		s := p.add(StepSort)
		for i := range q.OrderNodes {
			if needed[i] != sortNone {
				s.SortNodes = append(s.SortNodes, q.OrderNodes[i])
				s.SortDirs = append(s.SortDirs, q.OrderDirs[i])
			}
		}
		return
	}

	// Mixed directions devolve into reverse/sort pairs applied
	// last-key-first, so the first key ends up primary. Sorting the whole
	// list several times is inefficient but simple.
	applied := 0
	for i := len(q.OrderNodes) - 1; i >= 0; i-- {
		need := needed[i]
		if need == sortNone {
			continue
		}

		// The last key's sort (the first applied) can ride an index walk
		// that already produced its order.
		if applied == 0 && len(p.Steps) > 0 {
			first := &p.Steps[0]
			if (first.Type == StepIndexRange || first.Type == StepUniqueRange) &&
				len(first.Predicates) > 0 &&
				first.Predicates[0].Left.Function == q.OrderNodes[i].Function &&
				first.Predicates[0].Left.Fields[0].TableID == q.OrderNodes[i].Fields[0].TableID &&
				first.Predicates[0].Left.Fields[0].Index == q.OrderNodes[i].Fields[0].Index {
				if need&sortReverse != 0 {
					p.add(StepReverse)
				}
				applied++
				continue
			}
		}

		if need&sortReverse != 0 {
			p.add(StepReverse)
		}
		if need&sortSort != 0 {
			s := p.add(StepSort)
			s.SortNodes = []sql.ColumnNode{q.OrderNodes[i]}
			s.SortDirs = []sql.Order{q.OrderDirs[i]}
		}
		applied++
	}
}

// applySortLogic decides which ORDER BY keys actually need work. It writes
// a requirement bitmap per key into needed and returns the uniform
// direction (-1 when mixed, otherwise the shared sql.Order) and the count
// of keys needing an operation.
func applySortLogic(q *sql.Query, p *Plan, needed *[sql.MaxOrderColumns]int) (int, int) {
	added := 0
	direction := 0

	// Order produced by the access path only survives the joins when
	// every join matches at most one right row per left row.
	nonUniqueJoins := 0
	for i := range p.Steps {
		switch p.Steps[i].Type {
		case StepLoopJoin, StepConstantJoin, StepCrossJoin, StepIndexJoin:
			nonUniqueJoins++
		}
	}

	if nonUniqueJoins == 0 && len(p.Steps) > 0 && len(q.OrderNodes) > 0 {
		first := &p.Steps[0]

		// A table scan already emits rowid order.
		if first.Type == StepTableScan &&
			q.OrderNodes[0].Function == sql.FuncUnity &&
			(q.OrderNodes[0].Fields[0].Text == "rowid" || q.OrderNodes[0].Fields[0].Text == "PK") {
			if q.OrderDirs[0] == sql.Desc {
				needed[0] = sortReverse
				return int(sql.Desc), 0
			}
			return int(sql.Asc), 0
		}

		// A unique index walk emits index order with no duplicate keys,
		// so the first order column alone decides everything.
		if len(first.Predicates) > 0 {
			n := &first.Predicates[0].Left
			if (first.Type == StepUnique || first.Type == StepUniqueRange) &&
				n.Function == sql.FuncUnity &&
				n.Fields[0].Index == q.OrderNodes[0].Fields[0].Index {
				if q.OrderDirs[0] == sql.Desc {
					needed[0] = sortReverse
					return int(sql.Desc), 0
				}
				return int(sql.Asc), 0
			}

			// A non-unique index walk only covers a single-key ORDER BY.
			if (first.Type == StepIndexRange || first.Type == StepIndexScan) &&
				len(q.OrderNodes) == 1 &&
				n.Function == sql.FuncUnity &&
				n.Fields[0].Index == q.OrderNodes[0].Fields[0].Index {
				if q.OrderDirs[0] == sql.Desc {
					needed[0] = sortReverse
					return int(sql.Desc), 0
				}
				return int(sql.Asc), 0
			}
		}
	}

	for i := range q.OrderNodes {
		needed[i] = sortSort

		// An equality predicate pins the column; sorting by it is a
		// no-op.
		for j := range q.Predicates {
			if q.Predicates[j].Op == sql.OpEq &&
				q.Predicates[j].Left.Fields[0].Text == q.OrderNodes[i].Fields[0].Text &&
				q.Predicates[j].Left.Function == q.OrderNodes[i].Function {
				needed[i] = sortNone
				break
			}
		}

		if needed[i] == sortNone {
			continue
		}

		if added > 0 && q.OrderDirs[i] == sql.Desc {
			// Lower-precedence sorts exist, so this DESC needs the list
			// flipped before its own sort.
			needed[i] = sortReverse | sortSort
		}

		if added == 0 {
			direction = int(q.OrderDirs[i])
		} else if direction != int(q.OrderDirs[i]) {
			direction = -1
		}

		added++
	}

	return direction, added
}
