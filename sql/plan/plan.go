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

// Package plan turns a resolved query into a linear list of physical
// steps: an access path for the driving table, join steps for every other
// table, filters, sort/group/slice shaping, and a terminal projection.
package plan

import "github.com/flatbase/flatsql/sql"

// StepType identifies a plan step.
type StepType int

const (
	StepTableScan StepType = iota
	StepTableAccessRowid
	StepDummyRow
	StepPK
	StepPKRange
	StepUnique
	StepUniqueRange
	StepIndexRange
	StepIndexScan
	StepCrossJoin
	StepConstantJoin
	StepLoopJoin
	StepUniqueJoin
	StepIndexJoin
	StepSort
	StepReverse
	StepSlice
	StepGroup
	StepSelect
)

func (t StepType) String() string {
	switch t {
	case StepTableScan:
		return "TABLE SCAN"
	case StepTableAccessRowid:
		return "TABLE ACCESS BY ROWID"
	case StepDummyRow:
		return "DUMMY ROW"
	case StepPK:
		return "PRIMARY KEY"
	case StepPKRange:
		return "PRIMARY KEY RANGE"
	case StepUnique:
		return "UNIQUE INDEX"
	case StepUniqueRange:
		return "UNIQUE INDEX RANGE"
	case StepIndexRange:
		return "INDEX RANGE"
	case StepIndexScan:
		return "INDEX SCAN"
	case StepCrossJoin:
		return "CROSS JOIN"
	case StepConstantJoin:
		return "CONSTANT JOIN"
	case StepLoopJoin:
		return "LOOP JOIN"
	case StepUniqueJoin:
		return "UNIQUE JOIN"
	case StepIndexJoin:
		return "INDEX JOIN"
	case StepSort:
		return "SORT"
	case StepReverse:
		return "REVERSE"
	case StepSlice:
		return "SLICE"
	case StepGroup:
		return "GROUP"
	case StepSelect:
		return "SELECT"
	}
	return "??"
}

// Step is one plan instruction. Limit == -1 means no per-step cap. Access
// and join steps carry predicates; SORT and GROUP carry their key nodes.
type Step struct {
	Type       StepType
	Limit      int
	Predicates []sql.Predicate
	SortNodes  []sql.ColumnNode
	SortDirs   []sql.Order
}

// Plan is an ordered list of steps ending in StepSelect.
type Plan struct {
	Steps []Step
}

func (p *Plan) add(t StepType) *Step {
	p.Steps = append(p.Steps, Step{Type: t, Limit: -1})
	return &p.Steps[len(p.Steps)-1]
}

func (p *Plan) addWithPredicates(t StepType, predicates []sql.Predicate) *Step {
	s := p.add(t)
	s.Predicates = predicates
	return s
}

func (p *Plan) last() *Step {
	return &p.Steps[len(p.Steps)-1]
}
