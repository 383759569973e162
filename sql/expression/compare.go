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

package expression

import (
	"strconv"
	"strings"

	"github.com/flatbase/flatsql/internal/dates"
	"github.com/flatbase/flatsql/sql"
)

// EvaluateOp compares two string values under an operator.
//
// Both sides parsing as dates compare by Julian day. A literal NULL on
// either side turns = and != into emptiness tests of the other side and
// makes every other operator false. Empty (NULL) values never satisfy any
// remaining operator. Both sides numeric compare as signed integers,
// otherwise bytes. LIKE honours only a trailing % wildcard.
func EvaluateOp(op sql.Operator, left, right string) bool {
	if op == sql.OpAlways {
		return true
	}

	if dtLeft, okLeft := dates.Parse(left); okLeft {
		if dtRight, okRight := dates.Parse(right); okRight {
			return compareOrdered(op, dtLeft.Julian(), dtRight.Julian())
		}
	}

	if op == sql.OpLike {
		if strings.HasSuffix(right, "%") {
			return strings.HasPrefix(left, right[:len(right)-1])
		}
		return left == right
	}

	if right == "NULL" {
		switch op {
		case sql.OpEq:
			return left == ""
		case sql.OpNe:
			return left != ""
		}
		return false
	}

	if left == "NULL" {
		switch op {
		case sql.OpEq:
			return right == ""
		case sql.OpNe:
			return right != ""
		}
		return false
	}

	if left == "" || right == "" {
		return false
	}

	if sql.IsNumeric(left) && sql.IsNumeric(right) {
		nl, _ := strconv.ParseInt(left, 10, 64)
		nr, _ := strconv.ParseInt(right, 10, 64)
		return compareOrdered64(op, nl, nr)
	}

	switch op {
	case sql.OpEq:
		return left == right
	case sql.OpNe:
		return left != right
	case sql.OpLt:
		return left < right
	case sql.OpLe:
		return left <= right
	case sql.OpGt:
		return left > right
	case sql.OpGe:
		return left >= right
	}

	return false
}

func compareOrdered(op sql.Operator, left, right int) bool {
	return compareOrdered64(op, int64(left), int64(right))
}

func compareOrdered64(op sql.Operator, left, right int64) bool {
	switch op {
	case sql.OpEq:
		return left == right
	case sql.OpNe:
		return left != right
	case sql.OpLt:
		return left < right
	case sql.OpLe:
		return left <= right
	case sql.OpGt:
		return left > right
	case sql.OpGe:
		return left >= right
	}
	return false
}
