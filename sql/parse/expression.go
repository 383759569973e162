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

package parse

import (
	"fmt"
	"strings"

	"github.com/flatbase/flatsql/sql"
)

var extractParts = map[string]sql.Function{
	"YEAR":           sql.FuncExtractYear,
	"MONTH":          sql.FuncExtractMonth,
	"DAY":            sql.FuncExtractDay,
	"WEEK":           sql.FuncExtractWeek,
	"WEEKDAY":        sql.FuncExtractWeekday,
	"WEEKYEAR":       sql.FuncExtractWeekyear,
	"YEARDAY":        sql.FuncExtractYearday,
	"HEYEAR":         sql.FuncExtractHeyear,
	"MILLENNIUM":     sql.FuncExtractMillennium,
	"CENTURY":        sql.FuncExtractCentury,
	"DECADE":         sql.FuncExtractDecade,
	"QUARTER":        sql.FuncExtractQuarter,
	"JULIAN":         sql.FuncExtractJulian,
	"DATE":           sql.FuncExtractDate,
	"TIME":           sql.FuncExtractTime,
	"DATETIME":       sql.FuncExtractDatetime,
	"MONTH_STRING":   sql.FuncExtractMonthString,
	"WEEK_STRING":    sql.FuncExtractWeekString,
	"YEARDAY_STRING": sql.FuncExtractYeardayStr,
}

var aggregates = map[string]sql.Function{
	"COUNT":   sql.FuncAggCount,
	"MAX":     sql.FuncAggMax,
	"MIN":     sql.FuncAggMin,
	"AVG":     sql.FuncAggAvg,
	"LISTAGG": sql.FuncAggListAgg,
}

// parseColumnExpr parses one expression into col: a literal, a column
// reference, or a function call. It returns the query flag bits the
// expression implies (FlagGroup for aggregates, FlagPrimaryKeySearch for
// the PK() hint).
func parseColumnExpr(t *Tokenizer, col *sql.ColumnNode) (int, error) {
	col.Fields[0] = sql.NewField("")
	col.Fields[1] = sql.NewField("")
	col.Function = sql.FuncUnity

	text, quote, err := t.GetQuotedToken(MaxFieldLength)
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, sql.ErrSyntax.New("an expression", "end of input")
	}

	col.Alias = text

	if quote == QuoteDouble {
		// Explicitly quoted identifier, nothing else to check.
		col.Fields[0].Text = text
		return 0, nil
	}

	if quote == QuoteSingle {
		col.Fields[0] = sql.ConstantField(text)
		return 0, nil
	}

	switch {
	case sql.IsNumeric(text), text == "NULL":
		col.Fields[0] = sql.ConstantField(text)
		return 0, nil

	case text == "CURRENT_DATE", text == "TODAY()":
		// Resolved against the clock at evaluation time.
		col.Fields[0] = sql.ConstantField(text)
		return 0, nil

	case text == "COUNT(*)":
		col.Fields[0] = sql.Field{Text: text, TableID: -1, Index: sql.FieldCountStar}
		return sql.FlagGroup, nil

	case text == "*":
		col.Fields[0] = sql.Field{Text: text, TableID: -1, Index: sql.FieldStar}
		return 0, nil

	case text == "ROW_NUMBER()":
		col.Fields[0] = sql.Field{Text: text, TableID: -1, Index: sql.FieldRowNumber}
		return 0, nil

	case text == "rowid":
		// Defaults to the first table.
		col.Fields[0] = sql.Field{Text: text, TableID: 0, Index: sql.FieldRowIndex}
		return 0, nil

	case text == "RANDOM()":
		col.Function = sql.FuncRandom
		col.Fields[0] = sql.ConstantField("")
		return 0, nil

	case strings.HasPrefix(text, "PK("):
		col.Function = sql.FuncPK
		if err := parseFunctionArg(t, col, text[len("PK("):]); err != nil {
			return 0, err
		}
		return sql.FlagPrimaryKeySearch, nil

	case strings.HasPrefix(text, "CHR("):
		col.Function = sql.FuncChr
		return 0, parseFunctionArg(t, col, text[len("CHR("):])

	case strings.HasPrefix(text, "TO_HEX("):
		col.Function = sql.FuncToHex
		return 0, parseFunctionArg(t, col, text[len("TO_HEX("):])

	case strings.HasPrefix(text, "LENGTH("):
		col.Function = sql.FuncLength
		return 0, parseFunctionArg(t, col, text[len("LENGTH("):])

	case strings.HasPrefix(text, "LEFT("):
		col.Function = sql.FuncLeft
		return 0, parseTwoArgFunction(t, col, text[len("LEFT("):])

	case strings.HasPrefix(text, "RIGHT("):
		col.Function = sql.FuncRight
		return 0, parseTwoArgFunction(t, col, text[len("RIGHT("):])

	case strings.HasPrefix(text, "EXTRACT("):
		return 0, parseExtract(t, col, text[len("EXTRACT("):])
	}

	for name, fn := range aggregates {
		if strings.HasPrefix(text, name+"(") {
			col.Function = fn
			if err := parseFunctionArg(t, col, text[len(name)+1:]); err != nil {
				return 0, err
			}
			col.Alias = fmt.Sprintf("%s(%s)", name, col.Fields[0].Text)
			return sql.FlagGroup, nil
		}
	}

	if i := strings.IndexByte(text, '('); i > 0 && strings.HasSuffix(text, ")") {
		return 0, sql.ErrUnknownFunction.New(text[:i])
	}

	// A bare column reference, possibly table-qualified.
	col.Fields[0].Text = text
	return 0, nil
}

// parseFunctionArg takes the text following the opening parenthesis of a
// one-argument call, finds the closing parenthesis (either attached to the
// token or later in the stream), and classifies the operand.
func parseFunctionArg(t *Tokenizer, col *sql.ColumnNode, rest string) error {
	if strings.HasSuffix(rest, ")") {
		rest = rest[:len(rest)-1]
	} else {
		if t.Peek() != ')' {
			return sql.ErrSyntax.New("')'", string(t.Peek()))
		}
		t.Advance()
	}
	return classifyOperand(&col.Fields[0], rest)
}

// parseTwoArgFunction parses FUNC(field, count). The count argument is kept
// as a constant in Fields[1].
func parseTwoArgFunction(t *Tokenizer, col *sql.ColumnNode, rest string) error {
	if err := classifyOperand(&col.Fields[0], rest); err != nil {
		return err
	}

	if t.Peek() != ',' {
		return sql.ErrSyntax.New("','", string(t.Peek()))
	}
	t.Advance()

	count, err := t.GetToken(MaxFieldLength)
	if err != nil {
		return err
	}
	if strings.HasSuffix(count, ")") {
		count = count[:len(count)-1]
	} else {
		if t.Peek() != ')' {
			return sql.ErrSyntax.New("')'", string(t.Peek()))
		}
		t.Advance()
	}

	if !sql.IsNumeric(count) {
		return sql.ErrSyntax.New("a count", count)
	}
	col.Fields[1] = sql.ConstantField(count)
	return nil
}

// parseExtract parses EXTRACT(part FROM operand). rest carries the part
// name from the first token.
func parseExtract(t *Tokenizer, col *sql.ColumnNode, rest string) error {
	fn, ok := extractParts[rest]
	if !ok {
		return sql.ErrSyntax.New("a valid extract part", rest)
	}
	col.Function = fn

	if err := expectKeyword(t, "FROM"); err != nil {
		return err
	}

	operand, quote, err := t.GetQuotedToken(MaxFieldLength)
	if err != nil {
		return err
	}
	if quote == QuoteNone && strings.HasSuffix(operand, ")") {
		operand = operand[:len(operand)-1]
	} else {
		if t.Peek() != ')' {
			return sql.ErrSyntax.New("')'", string(t.Peek()))
		}
		t.Advance()
	}

	if quote == QuoteSingle {
		col.Fields[0] = sql.ConstantField(operand)
	} else if err := classifyOperand(&col.Fields[0], operand); err != nil {
		return err
	}

	col.Alias = fmt.Sprintf("EXTRACT(%s FROM %s)", rest, operand)
	return nil
}

// classifyOperand decides whether a function operand is a literal or a
// column reference.
func classifyOperand(f *sql.Field, text string) error {
	switch {
	case sql.IsNumeric(text):
		*f = sql.ConstantField(text)
	case strings.HasPrefix(text, "'"):
		if !strings.HasSuffix(text[1:], "'") {
			return sql.ErrSyntax.New("a closing apostrophe", text)
		}
		*f = sql.ConstantField(text[1 : len(text)-1])
	case text == "CURRENT_DATE", text == "TODAY()":
		*f = sql.ConstantField(text)
	case text == "rowid":
		*f = sql.Field{Text: text, TableID: 0, Index: sql.FieldRowIndex}
	default:
		*f = sql.NewField(text)
	}
	return nil
}
