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

import (
	"strings"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/vfs"
)

// Build emits the physical plan for a resolved query.
func Build(q *sql.Query) *Plan {
	p := &Plan{}

	// No FROM clause: a single empty row feeds the constant projection.
	if len(q.Tables) == 0 {
		p.add(StepDummyRow)
		p.add(StepSelect)
		return p
	}

	switch {
	case len(q.Predicates) > 0:
		buildPredicatePath(p, q)

	case q.Flags&sql.FlagOrder != 0 &&
		len(q.OrderNodes) >= 1 &&
		q.OrderNodes[0].Function == sql.FuncUnity &&
		q.Flags&sql.FlagGroup == 0:
		// No predicates, but an index walk can satisfy the ORDER BY.
		table := &q.Tables[0]
		kind := vfs.FindIndexKind(table.Name, vfs.BareColumn(q.OrderNodes[0].Fields[0].Text), sql.IndexNone)
		if kind != sql.IndexNone {
			step := StepIndexScan
			if kind == sql.IndexUnique {
				step = StepUniqueRange
			}
			p.addWithPredicates(step, alwaysPredicate(&q.OrderNodes[0]))
		} else {
			p.add(StepTableScan)
		}
		addJoinSteps(p, q)
		addOrderSteps(p, q)

	case q.Flags&sql.FlagGroup != 0 &&
		len(q.GroupNodes) > 0 &&
		q.GroupNodes[0].Function == sql.FuncUnity:
		// No predicates; an index walk can pre-order the GROUP BY.
		table := &q.Tables[0]
		if vfs.FindIndexKind(table.Name, vfs.BareColumn(q.GroupNodes[0].Fields[0].Text), sql.IndexNone) != sql.IndexNone {
			p.addWithPredicates(StepIndexScan, alwaysPredicate(&q.GroupNodes[0]))
			addJoinSteps(p, q)

			// Safe to push the limit into the join even though ordering
			// matters: there are no predicates left to drop rows.
			if q.Limit >= 0 {
				p.last().Limit = q.Offset + q.Limit
			}
		} else {
			p.add(StepTableScan)
			addJoinSteps(p, q)
		}

	default:
		p.add(StepTableScan)
		addJoinSteps(p, q)
		addOrderSteps(p, q)
	}

	addGroupStep(p, q)
	addLimitStep(p, q)
	p.add(StepSelect)

	return p
}

// buildPredicatePath plans queries that have WHERE predicates: pick an
// index for the best first-table predicate, or fall back to scans with an
// optional ordering index.
func buildPredicatePath(p *Plan, q *sql.Query) {
	onFirstTable := optimisePredicates(q)
	table := &q.Tables[0]

	if onFirstTable == 0 {
		// No predicate touches the driving table; scan, join, then filter
		// everything.
		p.add(StepTableScan)
		addJoinSteps(p, q)
		p.addWithPredicates(StepTableAccessRowid, q.Predicates)
		addOrderSteps(p, q)
		return
	}

	pred := &q.Predicates[0]
	fieldLeft := &pred.Left.Fields[0]

	// CALENDAR's own scan handles several predicates on one column as a
	// single Julian range; one-predicate index access would be slower.
	skipIndex := false
	if onFirstTable > 1 && table.Name == "CALENDAR" {
		if fieldLeft.Text == q.Predicates[1].Left.Fields[0].Text {
			skipIndex = true
		}
	}

	stepType := StepType(-1)
	if !skipIndex {
		rightText := pred.Right.Fields[0].Text

		switch {
		case pred.Op == sql.OpLike && !strings.HasSuffix(rightText, "%"):
			// An index cannot help a non-prefix LIKE.

		case pred.Left.Function == sql.FuncPK:
			if pred.Op == sql.OpEq {
				stepType = StepPK
			} else if pred.Op != sql.OpLike {
				stepType = StepPKRange
			}

		case pred.Left.Function == sql.FuncUnity:
			// Indexes are searched by bare column name.
			if dot := strings.IndexByte(fieldLeft.Text, '.'); dot >= 0 {
				fieldLeft.Text = fieldLeft.Text[dot+1:]
			}

			switch vfs.FindIndexKind(table.Name, fieldLeft.Text, sql.IndexNone) {
			case sql.IndexPrimary:
				if pred.Op == sql.OpEq {
					stepType = StepPK
				} else if pred.Op != sql.OpLike {
					stepType = StepPKRange
				}
			case sql.IndexUnique:
				// LIKE makes any index non-unique.
				if pred.Op != sql.OpLike {
					if pred.Op == sql.OpEq {
						stepType = StepUnique
					} else {
						stepType = StepUniqueRange
					}
					break
				}
				stepType = StepIndexRange
			case sql.IndexRegular:
				stepType = StepIndexRange
			}
		}
	}

	if stepType >= 0 {
		p.addWithPredicates(stepType, q.Predicates[:1])
		addJoinSteps(p, q)

		if len(q.Predicates) > 1 {
			p.addWithPredicates(StepTableAccessRowid, q.Predicates[1:])
		}

		switch {
		case stepType == StepPK || stepType == StepUnique:
			// At most one row; never anything to reorder.
		case q.Flags&sql.FlagGroup != 0:
			// Grouping queries are not sorted here.
		case q.Flags&sql.FlagOrder != 0:
			// Sorting on the column just walked only ever needs a
			// reverse.
			if len(q.OrderNodes) == 1 &&
				q.OrderNodes[0].Function == sql.FuncUnity &&
				fieldLeft.Text == q.OrderNodes[0].Fields[0].Text {
				if q.OrderDirs[0] == sql.Desc {
					p.add(StepReverse)
				}
			} else {
				addOrderSteps(p, q)
			}
		}
		return
	}

	// Before a full scan there is one more chance to use an index: walk
	// the ORDER BY column to save the sort. Not worth it for equality
	// predicates, where filtering first is cheaper.
	if !skipIndex &&
		q.Flags&sql.FlagOrder != 0 &&
		len(q.OrderNodes) == 1 &&
		pred.Op != sql.OpEq &&
		q.OrderNodes[0].Function == sql.FuncUnity &&
		vfs.FindIndexKind(table.Name, vfs.BareColumn(q.OrderNodes[0].Fields[0].Text), sql.IndexNone) != sql.IndexNone {

		p.addWithPredicates(StepIndexScan, alwaysPredicate(&q.OrderNodes[0]))

		// Filter before the join whenever leading predicates only touch
		// the first table and constants.
		skipPredicates := 0
		for i := range q.Predicates {
			if q.Predicates[i].Left.Fields[0].TableID <= 0 &&
				q.Predicates[i].Right.Fields[0].TableID <= 0 {
				skipPredicates++
			} else {
				break
			}
		}
		if skipPredicates > 0 {
			p.addWithPredicates(StepTableAccessRowid, q.Predicates[:skipPredicates])
		}

		addJoinSteps(p, q)

		if q.OrderDirs[0] == sql.Desc && q.Flags&sql.FlagGroup == 0 {
			p.add(StepReverse)
		}

		if len(q.Predicates) > skipPredicates {
			p.addWithPredicates(StepTableAccessRowid, q.Predicates[skipPredicates:])
		}
		return
	}

	// Or walk the GROUP BY column so the group step sees sorted rows.
	if q.Flags&sql.FlagGroup != 0 &&
		len(q.GroupNodes) > 0 &&
		q.GroupNodes[0].Function == sql.FuncUnity &&
		vfs.FindIndexKind(table.Name, vfs.BareColumn(q.GroupNodes[0].Fields[0].Text), sql.IndexNone) != sql.IndexNone {

		p.addWithPredicates(StepIndexScan, alwaysPredicate(&q.GroupNodes[0]))
		p.addWithPredicates(StepTableAccessRowid, q.Predicates[:onFirstTable])
		addJoinSteps(p, q)

		if len(q.Predicates) > onFirstTable {
			p.addWithPredicates(StepTableAccessRowid, q.Predicates[onFirstTable:])
		}

		if q.Limit >= 0 {
			p.last().Limit = q.Offset + q.Limit
		}
		return
	}

	// Full scan.
	if len(q.Tables) > 1 {
		p.addWithPredicates(StepTableScan, q.Predicates[:onFirstTable])
		addJoinSteps(p, q)
		if len(q.Predicates) > onFirstTable {
			p.addWithPredicates(StepTableAccessRowid, q.Predicates[onFirstTable:])
		}
	} else {
		p.addWithPredicates(StepTableScan, q.Predicates)
	}
	addOrderSteps(p, q)
}

// optimisePredicates normalises every predicate and reorders the list so
// predicates on the first table come first, preferring one marked with the
// PK() hint. Returns how many leading predicates touch the first table.
func optimisePredicates(q *sql.Query) int {
	predicates := q.Predicates
	chosen := -1

	for i := range predicates {
		predicates[i].Normalise()
		if predicates[i].Left.Function == sql.FuncPK && onFirstTable(&predicates[i]) {
			chosen = i
			break
		}
	}

	if chosen < 0 {
		for i := range predicates {
			if onFirstTable(&predicates[i]) {
				chosen = i
				break
			}
		}
	}

	if chosen < 0 {
		return 0
	}

	if chosen > 0 {
		predicates[0], predicates[chosen] = predicates[chosen], predicates[0]
	}

	n := 1
	for n < len(predicates) && onFirstTable(&predicates[n]) {
		n++
	}
	return n
}

// onFirstTable reports whether a predicate can run during the driving
// table's scan: its field is on table 0 and its other side does not read
// a table that has not been joined yet.
func onFirstTable(p *sql.Predicate) bool {
	left := p.Left.Fields[0]
	if left.TableID != 0 || left.Index == sql.FieldConstant {
		return false
	}
	right := p.Right.Fields[0]
	return right.Index == sql.FieldConstant || right.TableID <= 0
}

// addJoinSteps appends one join step per additional table, picked from the
// table's own join predicate.
func addJoinSteps(p *Plan, q *sql.Query) {
	for i := 1; i < len(q.Tables); i++ {
		table := &q.Tables[i]
		join := &table.Join

		if join.Op == sql.OpAlways {
			p.add(StepCrossJoin)
			continue
		}

		if join.Left.Fields[0].Index == sql.FieldConstant ||
			join.Right.Fields[0].Index == sql.FieldConstant {
			p.addWithPredicates(StepConstantJoin, predicateSlice(join))
			continue
		}

		if join.Op == sql.OpEq {
			// The side belonging to the joined table decides which index
			// can drive the lookup.
			inner := &join.Left
			if join.Right.Fields[0].TableID == i {
				inner = &join.Right
			}

			switch vfs.FindIndexKind(table.Name, vfs.BareColumn(inner.Fields[0].Text), sql.IndexNone) {
			case sql.IndexUnique, sql.IndexPrimary:
				p.addWithPredicates(StepUniqueJoin, predicateSlice(join))
				continue
			case sql.IndexRegular:
				p.addWithPredicates(StepIndexJoin, predicateSlice(join))
				continue
			}
		}

		p.addWithPredicates(StepLoopJoin, predicateSlice(join))
	}
}

// addGroupStep appends the SORT (unless rows already arrive in group
// order) and GROUP steps.
func addGroupStep(p *Plan, q *sql.Query) {
	if q.Flags&sql.FlagGroup == 0 || len(q.GroupNodes) == 0 {
		return
	}

	// Grouping requires sorted input. The check against the first step is
	// less than perfect but catches the index walks planted above.
	sortRequired := true
	if q.GroupNodes[0].Function == sql.FuncUnity && len(p.Steps) > 0 {
		first := &p.Steps[0]
		if (first.Type == StepIndexRange || first.Type == StepUniqueRange || first.Type == StepIndexScan) &&
			len(first.Predicates) > 0 &&
			first.Predicates[0].Left.Fields[0].Text == q.GroupNodes[0].Fields[0].Text {
			sortRequired = false
		}
	}

	if sortRequired {
		s := p.add(StepSort)
		s.SortNodes = q.GroupNodes
		s.SortDirs = make([]sql.Order, len(q.GroupNodes))
	}

	g := p.add(StepGroup)
	g.SortNodes = q.GroupNodes

	if q.Limit >= 0 {
		g.Limit = q.Limit
	}
}

// addLimitStep applies OFFSET/LIMIT: push the combined cap into the
// previous step when it can self-limit, otherwise append an explicit
// SLICE. SORT can never self-limit.
func addLimitStep(p *Plan, q *sql.Query) {
	if q.Limit < 0 {
		return
	}
	limit := q.Offset + q.Limit

	prev := p.last()
	if prev.Type == StepPK || prev.Type == StepUnique {
		return
	}
	if prev.Type != StepSort {
		if prev.Limit == -1 || prev.Limit > limit {
			prev.Limit = limit
		}
		return
	}

	s := p.add(StepSlice)
	s.Limit = limit
}

func alwaysPredicate(node *sql.ColumnNode) []sql.Predicate {
	return []sql.Predicate{{
		Op:   sql.OpAlways,
		Left: *node,
		Right: sql.ColumnNode{
			Fields: [2]sql.Field{sql.NewField(""), sql.NewField("")},
		},
	}}
}

func predicateSlice(p *sql.Predicate) []sql.Predicate {
	return []sql.Predicate{*p}
}
