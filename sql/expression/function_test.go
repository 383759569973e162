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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/sql"
)

func applyFn(t *testing.T, fn sql.Function, value string, args ...string) string {
	t.Helper()

	col := &sql.ColumnNode{Function: fn}
	col.Fields[0] = sql.ConstantField(value)
	if len(args) > 0 {
		col.Fields[1] = sql.ConstantField(args[0])
	}

	out, err := ApplyFunction(sql.NewEmptyContext(), col, value)
	require.NoError(t, err)
	return out
}

func TestApplyFunctionBasic(t *testing.T) {
	require := require.New(t)

	require.Equal("hello", applyFn(t, sql.FuncUnity, "hello"))
	require.Equal("A", applyFn(t, sql.FuncChr, "65"))
	require.Equal("€", applyFn(t, sql.FuncChr, "8364"))
	require.Equal("5", applyFn(t, sql.FuncLength, "hello"))
}

func TestApplyFunctionToHex(t *testing.T) {
	require := require.New(t)

	require.Equal("0x2a", applyFn(t, sql.FuncToHex, "42"))
	require.Equal("0x00", applyFn(t, sql.FuncToHex, "0"))
	require.Equal("0x04d2", applyFn(t, sql.FuncToHex, "1234"))
	require.Equal("0x186a0", applyFn(t, sql.FuncToHex, "100000"))
	require.Equal("-0x2a", applyFn(t, sql.FuncToHex, "-42"))
}

func TestApplyFunctionLeftRight(t *testing.T) {
	require := require.New(t)

	require.Equal("hel", applyFn(t, sql.FuncLeft, "hello", "3"))
	require.Equal("hello", applyFn(t, sql.FuncLeft, "hello", "10"))
	require.Equal("lo", applyFn(t, sql.FuncRight, "hello", "2"))
	require.Equal("hello", applyFn(t, sql.FuncRight, "hello", "10"))
}

func TestApplyFunctionEmptyValueStaysNull(t *testing.T) {
	require := require.New(t)

	require.Equal("", applyFn(t, sql.FuncLength, ""))
	require.Equal("", applyFn(t, sql.FuncExtractYear, ""))
}

func TestApplyFunctionExtract(t *testing.T) {
	testCases := []struct {
		fn       sql.Function
		value    string
		expected string
	}{
		{sql.FuncExtractYear, "2021-03-15", "2021"},
		{sql.FuncExtractMonth, "2021-03-15", "3"},
		{sql.FuncExtractDay, "2021-03-15", "15"},
		{sql.FuncExtractWeek, "2021-01-04", "1"},
		{sql.FuncExtractWeek, "2021-01-03", "53"},
		{sql.FuncExtractWeekday, "2021-01-04", "1"},
		{sql.FuncExtractWeekyear, "2021-01-03", "2020"},
		{sql.FuncExtractYearday, "2021-02-01", "32"},
		{sql.FuncExtractHeyear, "2021-03-15", "12021"},
		{sql.FuncExtractMillennium, "2021-03-15", "2"},
		{sql.FuncExtractCentury, "2021-03-15", "20"},
		{sql.FuncExtractDecade, "2021-03-15", "202"},
		{sql.FuncExtractQuarter, "2021-03-15", "1"},
		{sql.FuncExtractQuarter, "2021-10-15", "4"},
		{sql.FuncExtractDate, "15-MAR-2021", "2021-03-15"},
		{sql.FuncExtractDatetime, "2021-03-15", "2021-03-15T00:00:00"},
		{sql.FuncExtractMonthString, "2021-03-15", "2021-03"},
		{sql.FuncExtractWeekString, "2021-01-04", "2021-W01"},
		{sql.FuncExtractYeardayStr, "2021-02-01", "2021-032"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			require.Equal(t, tc.expected, applyFn(t, tc.fn, tc.value))
		})
	}
}

func TestApplyFunctionExtractBadDate(t *testing.T) {
	col := &sql.ColumnNode{Function: sql.FuncExtractYear}
	col.Fields[0] = sql.ConstantField("not-a-date")

	_, err := ApplyFunction(sql.NewEmptyContext(), col, "not-a-date")
	require.True(t, sql.ErrBadDate.Is(err))
}

func TestEvaluateConstantCurrentDate(t *testing.T) {
	require := require.New(t)

	ctx := fixedClockContext(2021, 6, 5)

	col := &sql.ColumnNode{}
	col.Fields[0] = sql.ConstantField("CURRENT_DATE")
	require.Equal("2021-06-05", EvaluateConstant(ctx, col))

	col.Fields[0] = sql.ConstantField("TODAY()")
	require.Equal("2021-06-05", EvaluateConstant(ctx, col))

	col.Fields[0] = sql.ConstantField("plain")
	require.Equal("plain", EvaluateConstant(ctx, col))
}
