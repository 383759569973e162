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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNumeric(t *testing.T) {
	require := require.New(t)

	require.True(IsNumeric("0"))
	require.True(IsNumeric("42"))
	require.True(IsNumeric("-42"))
	require.True(IsNumeric("+7"))
	require.False(IsNumeric(""))
	require.False(IsNumeric("-"))
	require.False(IsNumeric("4.2"))
	require.False(IsNumeric("42a"))
	require.False(IsNumeric("abc"))
}

func TestCompareValues(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected int
	}{
		{"1", "2", -1},
		{"10", "9", 1}, // numeric, not lexicographic
		{"-1", "1", -1},
		{"5", "5", 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"abc", "abc", 0},
		{"10", "a", -1}, // mixed falls back to bytes: '1' < 'a'
	}

	for _, tc := range testCases {
		t.Run(tc.a+" vs "+tc.b, func(t *testing.T) {
			require.Equal(t, tc.expected, CompareValues(tc.a, tc.b))
		})
	}
}

func TestPredicateNormalise(t *testing.T) {
	require := require.New(t)

	field := ColumnNode{Fields: [2]Field{{Text: "score", TableID: 0, Index: 2}, NewField("")}}
	constant := ColumnNode{Fields: [2]Field{ConstantField("20"), NewField("")}}

	p := Predicate{Op: OpLt, Left: constant, Right: field}
	p.Normalise()

	require.Equal(OpGt, p.Op)
	require.Equal("score", p.Left.Fields[0].Text)
	require.Equal("20", p.Right.Fields[0].Text)

	// Already normalised predicates stay put.
	p.Normalise()
	require.Equal(OpGt, p.Op)
	require.Equal("score", p.Left.Fields[0].Text)
}

func TestPredicateFlipPK(t *testing.T) {
	require := require.New(t)

	pk := ColumnNode{Function: FuncPK, Fields: [2]Field{{Text: "id", TableID: 0, Index: 0}, NewField("")}}
	field := ColumnNode{Fields: [2]Field{{Text: "other", TableID: 0, Index: 1}, NewField("")}}

	p := Predicate{Op: OpLe, Left: field, Right: pk}
	p.Normalise()

	require.Equal(FuncPK, p.Left.Function)
	require.Equal(OpGe, p.Op)
}
