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

package vfs

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/internal/dates"
	"github.com/flatbase/flatsql/sql"
)

// Calendar column positions.
const (
	colJulian = iota
	colDate
	colYear
	colMonth
	colDay
	colWeekyear
	colWeek
	colWeekday
	colYearday
	colMillennium
	colCentury
	colDecade
	colQuarter
	colFirstOfYear
	colLastOfYear
	colFirstOfQuarter
	colLastOfQuarter
	colFirstOfMonth
	colLastOfMonth
	colFirstOfWeek
	colLastOfWeek
	colIsLeapYear
	colWeekdayInMonth
	colIsWeekend
	colMonthString
	colYeardayString
	colWeekString
	colWeekdayString
)

var calendarFields = []string{
	"julian",
	"date",
	"year",
	"month",
	"day",
	"weekyear",
	"week",
	"weekday",
	"yearday",
	"millennium",
	"century",
	"decade",
	"quarter",
	"firstOfYear",
	"lastOfYear",
	"firstOfQuarter",
	"lastOfQuarter",
	"firstOfMonth",
	"lastOfMonth",
	"firstOfWeek",
	"lastOfWeek",
	"isLeapYear",
	"weekdayInMonth",
	"isWeekend",
	"monthString",
	"yeardayString",
	"weekString",
	"weekdayString",
}

// calendarRecordCount is a generous bound; real iteration is narrowed to a
// Julian range computed from the predicates. An unqualified scan is not
// expected to terminate in reasonable time.
const calendarRecordCount = 10000000

// calendar is a synthetic table of one row per Julian day, rowid == julian.
type calendar struct {
	name string
}

// OpenCalendar returns the calendar source.
func OpenCalendar(name string) sql.Source {
	return &calendar{name: name}
}

func (c *calendar) Name() string {
	return c.name
}

func (c *calendar) Close() error {
	return nil
}

func (c *calendar) FieldIndex(name string) int {
	// julian is the rowid itself.
	if name == "julian" || name == "rowid" {
		return sql.FieldRowIndex
	}
	for i, f := range calendarFields {
		if f == name {
			return i
		}
	}
	return sql.FieldUnknown
}

func (c *calendar) FieldName(i int) string {
	if i < 0 || i >= len(calendarFields) {
		return ""
	}
	return calendarFields[i]
}

func (c *calendar) FieldCount() int {
	return len(calendarFields)
}

func (c *calendar) RecordCount() int {
	return calendarRecordCount
}

func (c *calendar) RecordValue(rowID, field int) (string, error) {
	if field == colJulian || field == sql.FieldRowIndex {
		return fmt.Sprintf("%d", rowID), nil
	}

	dt := dates.FromJulian(rowID)

	switch field {
	case colDate:
		return dt.FormatDate(), nil
	case colYear:
		return fmt.Sprintf("%d", dt.Year), nil
	case colMonth:
		return fmt.Sprintf("%d", dt.Month), nil
	case colDay:
		return fmt.Sprintf("%d", dt.Day), nil
	case colWeekyear:
		return fmt.Sprintf("%d", dt.WeekYear()), nil
	case colWeek:
		return fmt.Sprintf("%d", dt.Week()), nil
	case colWeekday:
		return fmt.Sprintf("%d", dt.Weekday()), nil
	case colYearday:
		return fmt.Sprintf("%d", dt.YearDay()), nil
	case colMillennium:
		return fmt.Sprintf("%d", dt.Year/1000), nil
	case colCentury:
		return fmt.Sprintf("%d", dt.Year/100), nil
	case colDecade:
		return fmt.Sprintf("%d", dt.Year/10), nil
	case colQuarter:
		return fmt.Sprintf("%d", (dt.Month-1)/3+1), nil

	case colFirstOfYear:
		return dates.DateTime{Year: dt.Year, Month: 1, Day: 1}.FormatDate(), nil
	case colLastOfYear:
		return dates.DateTime{Year: dt.Year, Month: 12, Day: 31}.FormatDate(), nil

	case colFirstOfQuarter:
		month := ((dt.Month-1)/3)*3 + 1
		return dates.DateTime{Year: dt.Year, Month: month, Day: 1}.FormatDate(), nil
	case colLastOfQuarter:
		month := ((dt.Month-1)/3 + 1) * 3
		return dates.DateTime{Year: dt.Year, Month: month, Day: dates.MonthLength(dt.Year, month)}.FormatDate(), nil

	case colFirstOfMonth:
		return dates.DateTime{Year: dt.Year, Month: dt.Month, Day: 1}.FormatDate(), nil
	case colLastOfMonth:
		return dates.DateTime{Year: dt.Year, Month: dt.Month, Day: dates.MonthLength(dt.Year, dt.Month)}.FormatDate(), nil

	case colFirstOfWeek:
		return dates.FromJulian(rowID - dt.Weekday() + 1).FormatDate(), nil
	case colLastOfWeek:
		return dates.FromJulian(rowID - dt.Weekday() + 7).FormatDate(), nil

	case colIsLeapYear:
		if dates.IsLeapYear(dt.Year) {
			return "1", nil
		}
		return "0", nil
	case colWeekdayInMonth:
		return fmt.Sprintf("%d", (dt.Day-1)/7+1), nil
	case colIsWeekend:
		if dt.Weekday() >= 6 {
			return "1", nil
		}
		return "0", nil

	case colMonthString:
		return fmt.Sprintf("%04d-%02d", dt.Year, dt.Month), nil
	case colYeardayString:
		return fmt.Sprintf("%04d-%03d", dt.Year, dt.YearDay()), nil
	case colWeekString:
		return fmt.Sprintf("%04d-W%02d", dt.WeekYear(), dt.Week()), nil
	case colWeekdayString:
		return fmt.Sprintf("%04d-W%02d-%d", dt.WeekYear(), dt.Week(), dt.Weekday()), nil
	}

	return "", fmt.Errorf("%s: field %d out of range", c.name, field)
}

// ScanTable narrows the Julian range from equality and inequality
// predicates on julian, date or year before iterating, then filters each
// candidate day with the full predicate list.
func (c *calendar) ScanTable(ctx *sql.Context, list *sql.RowList, predicates []sql.Predicate, limit int) error {
	lo, hi := c.julianRange(predicates)

	if limit < 0 {
		limit = calendarRecordCount
	}

	for julian := lo; julian < hi; julian++ {
		match, err := matchesRecord(ctx, c, julian, predicates)
		if err != nil {
			return err
		}
		if match {
			list.Append(julian)
		}
		if list.RowCount >= limit {
			break
		}
	}
	return nil
}

// julianRange inspects the predicates for bounds on julian (the rowid),
// date, or year. Anything it cannot use just leaves the default bounds in
// place.
func (c *calendar) julianRange(predicates []sql.Predicate) (int, int) {
	lo, hi := 0, calendarRecordCount

	for i := range predicates {
		p := &predicates[i]
		p.Normalise()

		if p.Right.Fields[0].Index != sql.FieldConstant {
			continue
		}
		if p.Op != sql.OpEq && p.Op != sql.OpLt && p.Op != sql.OpLe && p.Op != sql.OpGt && p.Op != sql.OpGe {
			continue
		}

		value := p.Right.Fields[0].Text

		switch p.Left.Fields[0].Index {
		case sql.FieldRowIndex:
			julian := cast.ToInt(value)
			lo, hi = narrowRange(lo, hi, p.Op, julian, julian+1)

		case colDate:
			dt, ok := dates.Parse(value)
			if !ok {
				continue
			}
			julian := dt.Julian()
			lo, hi = narrowRange(lo, hi, p.Op, julian, julian+1)

		case colYear:
			year := cast.ToInt(value)
			start := dates.DateTime{Year: year, Month: 1, Day: 1}.Julian()
			end := dates.DateTime{Year: year + 1, Month: 1, Day: 1}.Julian()
			lo, hi = narrowRange(lo, hi, p.Op, start, end)
		}
	}

	if lo < 0 {
		lo = 0
	}
	if hi > calendarRecordCount {
		hi = calendarRecordCount
	}
	return lo, hi
}

// narrowRange tightens [lo, hi) given that the matched values span
// [valueLo, valueHi) and the predicate op relates the column to them.
func narrowRange(lo, hi int, op sql.Operator, valueLo, valueHi int) (int, int) {
	switch op {
	case sql.OpEq:
		if valueLo > lo {
			lo = valueLo
		}
		if valueHi < hi {
			hi = valueHi
		}
	case sql.OpLt:
		if valueLo < hi {
			hi = valueLo
		}
	case sql.OpLe:
		if valueHi < hi {
			hi = valueHi
		}
	case sql.OpGt:
		if valueHi > lo {
			lo = valueHi
		}
	case sql.OpGe:
		if valueLo > lo {
			lo = valueLo
		}
	}
	return lo, hi
}
