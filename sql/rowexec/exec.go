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

// Package rowexec interprets a physical plan over a stack of row lists.
// Execution is single threaded; every step pops what it needs, computes,
// and pushes one list (SELECT drains the stack and emits output).
package rowexec

import (
	"fmt"

	"github.com/flatbase/flatsql/output"
	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/plan"
)

// ExecutePlan runs a plan and writes its output. It returns the number of
// result lines emitted. Any step error aborts execution; the caller closes
// the query's sources.
func ExecutePlan(ctx *sql.Context, q *sql.Query, p *plan.Plan, out *output.Writer) (int, error) {
	if err := out.Preamble(); err != nil {
		return 0, err
	}
	if err := out.HeaderLineIfWanted(q); err != nil {
		return 0, err
	}

	set := sql.NewResultSet()
	rowCount := 0

	for i := range p.Steps {
		step := &p.Steps[i]

		span, stepCtx := ctx.Span("plan." + step.Type.String())
		stepCtx.Logger().WithField("step", step.Type.String()).Debug("executing plan step")

		var err error
		switch step.Type {
		case plan.StepDummyRow:
			err = executeDummyRow(set)
		case plan.StepTableScan:
			err = executeTableScan(stepCtx, q, step, set)
		case plan.StepTableAccessRowid:
			err = executeTableAccessRowid(stepCtx, q, step, set)
		case plan.StepPK, plan.StepPKRange:
			err = executePrimarySeek(stepCtx, q, step, set)
		case plan.StepUnique, plan.StepUniqueRange:
			err = executeUniqueSeek(stepCtx, q, step, set)
		case plan.StepIndexRange:
			err = executeIndexSeek(stepCtx, q, step, set)
		case plan.StepIndexScan:
			err = executeIndexScan(stepCtx, q, step, set)
		case plan.StepCrossJoin:
			err = executeCrossJoin(stepCtx, q, step, set)
		case plan.StepConstantJoin:
			err = executeConstantJoin(stepCtx, q, step, set)
		case plan.StepLoopJoin:
			err = executeLoopJoin(stepCtx, q, step, set)
		case plan.StepUniqueJoin:
			err = executeUniqueJoin(stepCtx, q, step, set)
		case plan.StepIndexJoin:
			err = executeIndexJoin(stepCtx, q, step, set)
		case plan.StepSort:
			err = executeSort(stepCtx, q, step, set)
		case plan.StepReverse:
			err = executeReverse(step, set)
		case plan.StepSlice:
			err = executeSlice(step, set)
		case plan.StepGroup:
			err = executeGroup(stepCtx, q, step, set)
		case plan.StepSelect:
			rowCount, err = executeSelect(stepCtx, q, set, out)
		default:
			err = fmt.Errorf("unimplemented plan step: %s", step.Type)
		}
		span.Finish()

		if err != nil {
			return rowCount, err
		}
	}

	if err := out.Postamble(); err != nil {
		return rowCount, err
	}
	return rowCount, nil
}

// stepCapacity sizes a fresh row list: the step's own limit when set, the
// source's record count otherwise.
func stepCapacity(step *plan.Step, src sql.Source) int {
	if step.Limit > -1 {
		return step.Limit
	}
	return src.RecordCount()
}

func executeDummyRow(set *sql.ResultSet) error {
	list := sql.NewRowList(0, 0)
	list.RowCount = 1
	set.Push(list)
	return nil
}
