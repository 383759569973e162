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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/sql"
)

func TestEvaluateOpNumeric(t *testing.T) {
	testCases := []struct {
		op          sql.Operator
		left, right string
		expected    bool
	}{
		{sql.OpEq, "10", "10", true},
		{sql.OpEq, "10", "9", false},
		{sql.OpNe, "10", "9", true},
		{sql.OpLt, "9", "10", true},
		{sql.OpLt, "10", "9", false},
		{sql.OpLe, "10", "10", true},
		{sql.OpGt, "10", "9", true},
		{sql.OpGe, "9", "10", false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s %s %s", tc.left, tc.op, tc.right), func(t *testing.T) {
			require.Equal(t, tc.expected, EvaluateOp(tc.op, tc.left, tc.right))
		})
	}
}

func TestEvaluateOpStrings(t *testing.T) {
	require := require.New(t)

	require.True(EvaluateOp(sql.OpEq, "abc", "abc"))
	require.True(EvaluateOp(sql.OpLt, "abc", "abd"))
	require.False(EvaluateOp(sql.OpGt, "abc", "abd"))

	// "10" vs "9a" is not a numeric pair; bytes decide.
	require.True(EvaluateOp(sql.OpLt, "10", "9a"))
}

func TestEvaluateOpDates(t *testing.T) {
	require := require.New(t)

	// Dates compare by Julian day, in any accepted format.
	require.True(EvaluateOp(sql.OpEq, "2021-01-04", "04-JAN-2021"))
	require.True(EvaluateOp(sql.OpLt, "2020-12-31", "2021-01-01"))
	require.True(EvaluateOp(sql.OpGe, "2021-02-01", "2021-01-31"))
	require.False(EvaluateOp(sql.OpGt, "2021-01-04", "2021-01-04"))
}

func TestEvaluateOpNull(t *testing.T) {
	require := require.New(t)

	require.True(EvaluateOp(sql.OpEq, "", "NULL"))
	require.False(EvaluateOp(sql.OpEq, "x", "NULL"))
	require.True(EvaluateOp(sql.OpNe, "x", "NULL"))
	require.False(EvaluateOp(sql.OpLt, "x", "NULL"))
	require.True(EvaluateOp(sql.OpEq, "NULL", ""))

	// Empty values satisfy no ordinary operator.
	require.False(EvaluateOp(sql.OpEq, "", ""))
	require.False(EvaluateOp(sql.OpLt, "", "5"))
}

func TestEvaluateOpLike(t *testing.T) {
	require := require.New(t)

	require.True(EvaluateOp(sql.OpLike, "Barry", "B%"))
	require.True(EvaluateOp(sql.OpLike, "B", "B%"))
	require.False(EvaluateOp(sql.OpLike, "Alice", "B%"))

	// Without a trailing % the pattern matches exactly; a % anywhere
	// else is literal.
	require.True(EvaluateOp(sql.OpLike, "Bob", "Bob"))
	require.False(EvaluateOp(sql.OpLike, "Bobby", "Bob"))
	require.False(EvaluateOp(sql.OpLike, "aXb", "a%b"))
	require.True(EvaluateOp(sql.OpLike, "a%b", "a%b"))
}

func TestEvaluateOpAlways(t *testing.T) {
	require.True(t, EvaluateOp(sql.OpAlways, "anything", ""))
}
