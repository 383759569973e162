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
	"fmt"
	"io"
	"strings"

	"github.com/flatbase/flatsql/sql"
)

// Explain renders a plan as CSV rows: ID,Operation,Table,Predicate,Rows,
// Cost. The estimates are heuristic; EXPLAIN exists to show the chosen
// access paths and join strategies, not to predict runtimes.
func Explain(q *sql.Query, p *Plan, w io.Writer, headers bool) error {
	if headers {
		if _, err := fmt.Fprintln(w, "ID,Operation,Table,Predicate,Rows,Cost"); err != nil {
			return err
		}
	}

	rowEstimate := 1
	if len(q.Tables) > 0 {
		rowEstimate = q.Tables[0].Source.RecordCount()
	}

	rows := rowEstimate
	cost := 0
	joinID := 0

	for i := range p.Steps {
		s := &p.Steps[i]
		table := ""

		switch s.Type {
		case StepDummyRow:
			rows, cost = 1, 0

		case StepTableScan:
			rows, cost = rowEstimate, rowEstimate
			rows = shrinkEstimate(rows, s.Predicates, 1000)
			table = q.Tables[0].Alias

		case StepTableAccessRowid:
			if cost < rows {
				cost = rows
			}
			rows = shrinkEstimate(rows, s.Predicates, 1000)

		case StepPK, StepUnique:
			rows, cost = 1, 1
			table = q.Tables[0].Alias

		case StepPKRange, StepUniqueRange, StepIndexRange, StepIndexScan:
			rows = rowEstimate / 2
			cost = log10(rowEstimate) + rows
			table = q.Tables[0].Alias

		case StepCrossJoin, StepConstantJoin, StepLoopJoin, StepUniqueJoin, StepIndexJoin:
			joinID++
			if joinID < len(q.Tables) {
				table = q.Tables[joinID].Alias
				right := q.Tables[joinID].Source.RecordCount()
				switch s.Type {
				case StepCrossJoin:
					rows *= right
					cost += rows
				case StepUniqueJoin:
					cost += rows * log10(right)
				default:
					cost += rows * right
				}
			}

		case StepSort:
			cost += rows * log10(rows)

		case StepReverse, StepSlice, StepGroup, StepSelect:
			cost += rows
		}

		if s.Limit >= 0 && s.Limit < rows {
			rows = s.Limit
		}

		if _, err := fmt.Fprintf(w, "%d,%s,%s,%s,%d,%d\n",
			i, s.Type, table, explainPredicates(s), rows, cost); err != nil {
			return err
		}
	}

	return nil
}

func explainPredicates(s *Step) string {
	var parts []string
	for i := range s.Predicates {
		left := &s.Predicates[i].Left
		if left.Function == sql.FuncUnity || left.Function == sql.FuncPK {
			parts = append(parts, left.Fields[0].Text)
		} else {
			parts = append(parts, fmt.Sprintf("F(%s)", left.Fields[0].Text))
		}
	}
	for i := range s.SortNodes {
		parts = append(parts, s.SortNodes[i].Fields[0].Text)
	}
	return strings.Join(parts, "; ")
}

func shrinkEstimate(rows int, predicates []sql.Predicate, eqFactor int) int {
	for i := range predicates {
		if predicates[i].Op == sql.OpEq {
			rows /= eqFactor
		} else {
			rows /= 2
		}
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

func log10(value int) int {
	n := 0
	for value >= 10 {
		value /= 10
		n++
	}
	return n
}
