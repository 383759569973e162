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

package sql

// Normalise ensures the bare field is on the left and the constant on the
// right, flipping the comparison operator as required. A PK() marker on the
// right also forces a flip so index selection only ever looks left.
func (p *Predicate) Normalise() {
	if p.Left.Fields[0].Index == FieldConstant && p.Right.Fields[0].Index >= 0 {
		p.Flip()
	} else if p.Left.Function != FuncPK && p.Right.Function == FuncPK {
		p.Flip()
	}
}

// Flip swaps the two sides, reversing the operator's direction. It reports
// whether the operator could be flipped; LIKE cannot.
func (p *Predicate) Flip() bool {
	switch p.Op {
	case OpLt:
		p.Op = OpGt
	case OpLe:
		p.Op = OpGe
	case OpGt:
		p.Op = OpLt
	case OpGe:
		p.Op = OpLe
	case OpEq, OpNe:
		// symmetric
	default:
		return false
	}
	p.Left, p.Right = p.Right, p.Left
	return true
}
