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
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/internal/dates"
	"github.com/flatbase/flatsql/sql"
)

// ApplyFunction applies a node's scalar function to a raw value. The unity
// function and the PK() hint pass the value through. An empty value stays
// empty for every function except RANDOM.
func ApplyFunction(ctx *sql.Context, col *sql.ColumnNode, value string) (string, error) {
	switch col.Function {
	case sql.FuncUnity, sql.FuncPK:
		return value, nil

	case sql.FuncRandom:
		return fmt.Sprintf("%d", ctx.Rand().Int31()), nil
	}

	if value == "" {
		return "", nil
	}

	switch col.Function {
	case sql.FuncChr:
		codepoint := cast.ToInt(value)
		buf := make([]byte, 4)
		n := utf8.EncodeRune(buf, rune(codepoint))
		return string(buf[:n]), nil

	case sql.FuncToHex:
		v := cast.ToInt(value)
		switch {
		case v < 0:
			return fmt.Sprintf("-0x%x", -v), nil
		case v < 0x100:
			return fmt.Sprintf("0x%02x", v), nil
		case v < 0x10000:
			return fmt.Sprintf("0x%04x", v), nil
		default:
			return fmt.Sprintf("0x%x", v), nil
		}

	case sql.FuncLength:
		return fmt.Sprintf("%d", len(value)), nil

	case sql.FuncLeft:
		count := cast.ToInt(col.Fields[1].Text)
		if len(value) > count {
			return value[:count], nil
		}
		return value, nil

	case sql.FuncRight:
		count := cast.ToInt(col.Fields[1].Text)
		if len(value) > count {
			return value[len(value)-count:], nil
		}
		return value, nil
	}

	if col.Function.Family() == sql.FuncFamExtract {
		return applyExtract(col.Function, value)
	}

	return "", sql.ErrUnknownFunction.New(col.Fields[0].Text)
}

func applyExtract(fn sql.Function, value string) (string, error) {
	dt, ok := dates.Parse(value)
	if !ok {
		return "", sql.ErrBadDate.New(value)
	}

	switch fn {
	case sql.FuncExtractYear:
		return fmt.Sprintf("%d", dt.Year), nil
	case sql.FuncExtractMonth:
		return fmt.Sprintf("%d", dt.Month), nil
	case sql.FuncExtractDay:
		return fmt.Sprintf("%d", dt.Day), nil
	case sql.FuncExtractWeek:
		return fmt.Sprintf("%d", dt.Week()), nil
	case sql.FuncExtractWeekday:
		return fmt.Sprintf("%d", dt.Weekday()), nil
	case sql.FuncExtractWeekyear:
		return fmt.Sprintf("%d", dt.WeekYear()), nil
	case sql.FuncExtractYearday:
		return fmt.Sprintf("%d", dt.YearDay()), nil
	case sql.FuncExtractHeyear:
		return fmt.Sprintf("%d", dt.Year+10000), nil
	case sql.FuncExtractMillennium:
		return fmt.Sprintf("%d", dt.Year/1000), nil
	case sql.FuncExtractCentury:
		return fmt.Sprintf("%d", dt.Year/100), nil
	case sql.FuncExtractDecade:
		return fmt.Sprintf("%d", dt.Year/10), nil
	case sql.FuncExtractQuarter:
		return fmt.Sprintf("%d", (dt.Month-1)/3+1), nil
	case sql.FuncExtractJulian:
		return fmt.Sprintf("%d", dt.Julian()), nil
	case sql.FuncExtractDate:
		return dt.FormatDate(), nil
	case sql.FuncExtractTime:
		return dt.FormatTime(), nil
	case sql.FuncExtractDatetime:
		return dt.FormatDateTime(), nil
	case sql.FuncExtractMonthString:
		return fmt.Sprintf("%04d-%02d", dt.Year, dt.Month), nil
	case sql.FuncExtractWeekString:
		return fmt.Sprintf("%04d-W%02d", dt.WeekYear(), dt.Week()), nil
	case sql.FuncExtractYeardayStr:
		return fmt.Sprintf("%04d-%03d", dt.Year, dt.YearDay()), nil
	}

	return "", sql.ErrUnknownFunction.New(fmt.Sprintf("EXTRACT %#x", int(fn)))
}
