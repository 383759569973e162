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

// Package dates implements the calendar arithmetic the engine works in:
// parsing the accepted date formats, Julian day numbers, and ISO 8601
// week/weekday/week-year numbering. All arithmetic is integer and is only
// defined for years in [1, 9999].
package dates

import (
	"fmt"
	"strconv"
	"strings"
)

// DateTime is a broken-down date and time of day.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Cumulative days before the start of each month, non-leap.
var monthIndex = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

var monthNames = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

// Parse recognises YYYY-MM-DD, ±NNNNN-MM-DD, DD-MON-YYYY and DD MON YYYY.
// It reports whether the input matched any of them.
func Parse(input string) (DateTime, bool) {
	var dt DateTime

	if matchesFormat(input, "+nnnnn-nn-nn") {
		dt.Year, _ = strconv.Atoi(input[1:6])
		if input[0] == '-' {
			dt.Year = -dt.Year
		}
		dt.Month, _ = strconv.Atoi(input[7:9])
		dt.Day, _ = strconv.Atoi(input[10:12])
		return dt, true
	}

	if matchesFormat(input, "nnnn-nn-nn") {
		dt.Year, _ = strconv.Atoi(input[0:4])
		dt.Month, _ = strconv.Atoi(input[5:7])
		dt.Day, _ = strconv.Atoi(input[8:10])
		return dt, true
	}

	if matchesFormat(input, "nn-aaa-nnnn") || matchesFormat(input, "nn aaa nnnn") {
		dt.Day, _ = strconv.Atoi(input[0:2])
		m, ok := monthNames[strings.ToUpper(input[3:6])]
		if !ok {
			return DateTime{}, false
		}
		dt.Month = m
		dt.Year, _ = strconv.Atoi(input[7:11])
		return dt, true
	}

	return DateTime{}, false
}

// matchesFormat verifies input against a template where 'n' matches a
// digit, 'a' matches a letter, '+' matches a sign, and anything else
// matches itself. Trailing input beyond the template is ignored, so a
// datetime string still matches its date prefix.
func matchesFormat(input, format string) bool {
	if len(input) < len(format) {
		return false
	}
	for i := 0; i < len(format); i++ {
		c := input[i]
		switch format[i] {
		case 'n':
			if c < '0' || c > '9' {
				return false
			}
		case 'a':
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
				return false
			}
		case '+':
			if c != '+' && c != '-' {
				return false
			}
		default:
			if c != format[i] {
				return false
			}
		}
	}
	return true
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%400 == 0 || year%100 != 0)
}

// MonthLength returns the number of days in the given month.
func MonthLength(year, month int) int {
	d := monthLengths[month-1]
	if month == 2 && IsLeapYear(year) {
		d++
	}
	return d
}

// YearDay returns the 1-based ordinal day within the year.
func (dt DateTime) YearDay() int {
	leap := 0
	if dt.Month > 2 && IsLeapYear(dt.Year) {
		leap = 1
	}
	return monthIndex[dt.Month-1] + dt.Day + leap
}

// isoParts computes the shared intermediates of the ISO week algorithm
// (Tøndering): n is the week-relative day ordinal, g the January 1st
// weekday offset, s the leap correction, d the 0-based ISO weekday.
func (dt DateTime) isoParts() (n, g, s, d int) {
	var e, f, a, b int
	if dt.Month < 3 {
		a = dt.Year - 1
		b = a/4 - a/100 + a/400
		c := (a-1)/4 - (a-1)/100 + (a-1)/400
		s = b - c
		e = 0
		f = dt.Day - 1 + 31*(dt.Month-1)
	} else {
		a = dt.Year
		b = a/4 - a/100 + a/400
		c := (a-1)/4 - (a-1)/100 + (a-1)/400
		s = b - c
		e = s + 1
		f = dt.Day + (153*(dt.Month-3)+2)/5 + 58 + s
	}
	g = (a + b) % 7
	d = (f + g - e) % 7
	n = f + 3 - d
	return n, g, s, d
}

// Week returns the ISO 8601 week number.
func (dt DateTime) Week() int {
	n, g, s, _ := dt.isoParts()
	switch {
	case n < 0:
		return 53 - (g-s)/5
	case n > 364+s:
		return 1
	default:
		return n/7 + 1
	}
}

// WeekYear returns the ISO 8601 week-numbering year.
func (dt DateTime) WeekYear() int {
	n, _, s, _ := dt.isoParts()
	switch {
	case n < 0:
		return dt.Year - 1
	case n > 364+s:
		return dt.Year + 1
	default:
		return dt.Year
	}
}

// Weekday returns the ISO 8601 weekday, 1 = Monday through 7 = Sunday.
func (dt DateTime) Weekday() int {
	_, _, _, d := dt.isoParts()
	return d + 1
}

// Julian returns the Julian day number. Times before noon land on the
// preceding astronomical day, matching the source algorithm.
func (dt DateTime) Julian() int {
	y := dt.Year
	m := dt.Month
	if m < 3 {
		y--
		m += 12
	}

	a := y / 100
	b := a / 4
	c := 2 - a + b
	e := int(365.25 * float64(y+4716))
	f := int(30.6001 * float64(m+1))

	g := 0
	if dt.Hour < 12 {
		g = 1
	}

	return c + dt.Day + e + f - 1524 - g
}

// FromJulian converts a Julian day number back to a date. Only defined for
// years in [1, 9999]; near year 1 the month boundary around March 1st is
// undefined.
func FromJulian(julian int) DateTime {
	z := julian + 1
	w := int((float64(z) - 1867216.25) / 36524.25)
	x := w / 4
	a := z + 1 + w - x
	b := a + 1524
	c := int((float64(b) - 122.1) / 365.25)
	d := int(365.25 * float64(c))
	e := int(float64(b-d) / 30.6001)
	f := int(30.6001 * float64(e))

	var dt DateTime
	dt.Day = b - d - f
	dt.Month = e - 1
	if dt.Month > 12 {
		dt.Month -= 12
	}
	if dt.Month <= 2 {
		dt.Year = c - 4715
	} else {
		dt.Year = c - 4716
	}
	return dt
}

// FromUnix converts a Unix timestamp in seconds to a Julian day number.
func FromUnix(seconds int64) int {
	return 2440587 + int(seconds/86400)
}

// FormatDate renders the date part in ISO 8601, using the extended
// ±NNNNN-MM-DD form outside [0, 9999].
func (dt DateTime) FormatDate() string {
	if dt.Year >= 0 && dt.Year < 10000 {
		return fmt.Sprintf("%04d-%02d-%02d", dt.Year, dt.Month, dt.Day)
	}
	return fmt.Sprintf("%+06d-%02d-%02d", dt.Year, dt.Month, dt.Day)
}

// FormatDateTime renders the full value as YYYY-MM-DDTHH:MM:SS.
func (dt DateTime) FormatDateTime() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

// FormatTime renders the time of day as HH:MM:SS.
func (dt DateTime) FormatTime() string {
	return fmt.Sprintf("%02d:%02d:%02d", dt.Hour, dt.Minute, dt.Second)
}
