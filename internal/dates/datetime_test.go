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

package dates

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected DateTime
		ok       bool
	}{
		{"2021-01-04", DateTime{Year: 2021, Month: 1, Day: 4}, true},
		{"1999-12-31", DateTime{Year: 1999, Month: 12, Day: 31}, true},
		{"04-JAN-2021", DateTime{Year: 2021, Month: 1, Day: 4}, true},
		{"04-Jan-2021", DateTime{Year: 2021, Month: 1, Day: 4}, true},
		{"04 Jan 2021", DateTime{Year: 2021, Month: 1, Day: 4}, true},
		{"+12021-01-04", DateTime{Year: 12021, Month: 1, Day: 4}, true},
		{"2021-01-04T10:30:00", DateTime{Year: 2021, Month: 1, Day: 4}, true},
		{"hello", DateTime{}, false},
		{"2021", DateTime{}, false},
		{"", DateTime{}, false},
		{"20-21-01-04", DateTime{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			dt, ok := Parse(tc.input)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.expected, dt)
			}
		})
	}
}

func TestJulianRoundTrip(t *testing.T) {
	require := require.New(t)

	cases := []DateTime{
		{Year: 2000, Month: 1, Day: 1},
		{Year: 2020, Month: 2, Day: 29},
		{Year: 2020, Month: 3, Day: 1},
		{Year: 1999, Month: 12, Day: 31},
		{Year: 2021, Month: 1, Day: 4},
		{Year: 1899, Month: 7, Day: 15},
		{Year: 9999, Month: 12, Day: 31},
	}

	for _, dt := range cases {
		julian := dt.Julian()
		back := FromJulian(julian)
		require.Equal(dt.Year, back.Year, "year of %v", dt)
		require.Equal(dt.Month, back.Month, "month of %v", dt)
		require.Equal(dt.Day, back.Day, "day of %v", dt)
	}
}

func TestJulianKnownValue(t *testing.T) {
	// 2000-01-01 00:00 falls on JD 2451544 in the engine's pre-noon
	// convention.
	dt := DateTime{Year: 2000, Month: 1, Day: 1}
	require.Equal(t, 2451544, dt.Julian())
}

func TestJulianSequential(t *testing.T) {
	require := require.New(t)

	// Consecutive days differ by exactly one across month and year
	// boundaries.
	start := DateTime{Year: 2019, Month: 12, Day: 28}.Julian()
	for i := 1; i < 70; i++ {
		dt := FromJulian(start + i)
		require.Equal(start+i, dt.Julian())
	}
}

func TestISOWeek(t *testing.T) {
	testCases := []struct {
		date     string
		week     int
		weekYear int
		weekday  int
	}{
		{"2021-01-04", 1, 2021, 1},
		{"2021-01-03", 53, 2020, 7},
		{"2020-12-31", 53, 2020, 4},
		{"2016-01-01", 53, 2015, 5},
		{"2015-12-31", 53, 2015, 4},
		{"2019-12-30", 1, 2020, 1},
		{"2020-06-15", 25, 2020, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.date, func(t *testing.T) {
			dt, ok := Parse(tc.date)
			require.True(t, ok)
			require.Equal(t, tc.week, dt.Week())
			require.Equal(t, tc.weekYear, dt.WeekYear())
			require.Equal(t, tc.weekday, dt.Weekday())
		})
	}
}

func TestYearDay(t *testing.T) {
	require := require.New(t)

	require.Equal(1, DateTime{Year: 2021, Month: 1, Day: 1}.YearDay())
	require.Equal(365, DateTime{Year: 2021, Month: 12, Day: 31}.YearDay())
	require.Equal(366, DateTime{Year: 2020, Month: 12, Day: 31}.YearDay())
	require.Equal(60, DateTime{Year: 2020, Month: 2, Day: 29}.YearDay())
}

func TestLeapYears(t *testing.T) {
	require := require.New(t)

	require.True(IsLeapYear(2000))
	require.True(IsLeapYear(2020))
	require.False(IsLeapYear(1900))
	require.False(IsLeapYear(2021))
	require.Equal(29, MonthLength(2020, 2))
	require.Equal(28, MonthLength(2021, 2))
	require.Equal(31, MonthLength(2021, 12))
}

func TestFormatDate(t *testing.T) {
	require := require.New(t)

	require.Equal("2021-01-04", DateTime{Year: 2021, Month: 1, Day: 4}.FormatDate())
	require.Equal("+12021-01-04", DateTime{Year: 12021, Month: 1, Day: 4}.FormatDate())
	require.Equal("2021-01-04T00:00:00", DateTime{Year: 2021, Month: 1, Day: 4}.FormatDateTime())
}

func TestFromUnix(t *testing.T) {
	// The Unix epoch is JD 2440587 in the pre-noon convention.
	require.Equal(t, 2440587, FromUnix(0))
	require.Equal(t, 2440588, FromUnix(86400))
}

func ExampleDateTime_Week() {
	dt, _ := Parse("2021-01-04")
	fmt.Println(dt.Week())
	// Output: 1
}
