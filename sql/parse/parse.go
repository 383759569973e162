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

// Package parse converts query text into a sql.Query. Keywords are
// recognised case-sensitively in UPPER case; the tokenizer keeps
// parentheses and operator characters inside tokens so FUNC(arg) arrives
// in one piece.
package parse

import (
	"fmt"
	"strings"

	"github.com/flatbase/flatsql/sql"
)

// ParseQuery parses a SELECT-shaped statement. CREATE and INSERT are
// dispatched before parsing ever reaches here. On error the returned query
// must be discarded.
func ParseQuery(input string) (*sql.Query, error) {
	q := &sql.Query{Limit: -1}
	t := NewTokenizer(input)

	mark := t.Mark()
	first, err := t.GetToken(MaxFieldLength)
	if err != nil {
		return nil, err
	}
	if first == "EXPLAIN" {
		q.Flags |= sql.FlagExplain
	} else {
		t.Reset(mark)
	}

	for !t.EOF() {
		keyword, err := t.GetToken(MaxFieldLength)
		if err != nil {
			return nil, err
		}
		if keyword == "" {
			break
		}

		switch keyword {
		case "SELECT":
			if err := parseSelectList(t, q); err != nil {
				return nil, err
			}
		case "FROM":
			if err := parseTableList(t, q); err != nil {
				return nil, err
			}
		case "WHERE":
			if err := parsePredicates(t, q); err != nil {
				return nil, err
			}
		case "GROUP":
			if err := expectKeyword(t, "BY"); err != nil {
				return nil, err
			}
			if err := parseGroupBy(t, q); err != nil {
				return nil, err
			}
		case "ORDER":
			if err := expectKeyword(t, "BY"); err != nil {
				return nil, err
			}
			if err := parseOrderBy(t, q); err != nil {
				return nil, err
			}
		case "OFFSET":
			n, err := t.GetNumericToken()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, sql.ErrSyntax.New("a non-negative OFFSET", fmt.Sprintf("%d", n))
			}
			q.Offset = n
		case "LIMIT":
			n, err := t.GetNumericToken()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, sql.ErrSyntax.New("a non-negative LIMIT", fmt.Sprintf("%d", n))
			}
			q.Limit = n
		case "FETCH":
			if err := parseFetchFirst(t, q); err != nil {
				return nil, err
			}
		default:
			return nil, sql.ErrSyntax.New("SELECT|FROM|WHERE|GROUP BY|ORDER BY|OFFSET|FETCH FIRST|LIMIT", keyword)
		}
	}

	// SELECT is optional; the implicit projection is *.
	if len(q.Columns) == 0 {
		q.Columns = []sql.ColumnNode{starNode()}
	}

	return q, nil
}

func starNode() sql.ColumnNode {
	return sql.ColumnNode{
		Fields: [2]sql.Field{
			{Text: "*", TableID: -1, Index: sql.FieldStar},
			sql.NewField(""),
		},
	}
}

func expectKeyword(t *Tokenizer, keyword string) error {
	tok, err := t.GetToken(MaxFieldLength)
	if err != nil {
		return err
	}
	if tok != keyword {
		return sql.ErrSyntax.New(keyword, tok)
	}
	return nil
}

func parseFetchFirst(t *Tokenizer, q *sql.Query) error {
	tok, err := t.GetToken(MaxFieldLength)
	if err != nil {
		return err
	}
	if tok != "FIRST" && tok != "NEXT" {
		return sql.ErrSyntax.New("FIRST|NEXT", tok)
	}

	c := t.Peek()
	if c >= '0' && c <= '9' {
		n, err := t.GetNumericToken()
		if err != nil {
			return err
		}
		if n < 0 {
			return sql.ErrSyntax.New("a non-negative row count", fmt.Sprintf("%d", n))
		}
		q.Limit = n
	} else {
		q.Limit = 1
	}

	tok, err = t.GetToken(MaxFieldLength)
	if err != nil {
		return err
	}
	if tok != "ROW" && tok != "ROWS" {
		return sql.ErrSyntax.New("ROW|ROWS", tok)
	}

	return expectKeyword(t, "ONLY")
}

func parseSelectList(t *Tokenizer, q *sql.Query) error {
	concat := false
	for {
		var col sql.ColumnNode
		col.Concat = concat
		concat = false

		flags, err := parseColumnExpr(t, &col)
		if err != nil {
			return err
		}
		q.Flags |= flags

		if t.ConsumePrefix("AS ") {
			alias, _, err := t.GetQuotedToken(MaxFieldLength)
			if err != nil {
				return err
			}
			col.Alias = alias
		}

		q.Columns = append(q.Columns, col)

		if t.HasPrefix("||") {
			t.ConsumePrefix("||")
			concat = true
			continue
		}
		if t.Peek() == ',' {
			t.Advance()
			continue
		}
		break
	}
	return nil
}

func parseTableList(t *Tokenizer, q *sql.Query) error {
	tbl, err := parseTableSpec(t)
	if err != nil {
		return err
	}
	tbl.Join = sql.Predicate{Op: sql.OpAlways}
	q.Tables = append(q.Tables, tbl)

	for {
		if t.Peek() == ',' {
			t.Advance()
			next, err := parseTableSpec(t)
			if err != nil {
				return err
			}
			next.Join = sql.Predicate{Op: sql.OpAlways}
			q.Tables = append(q.Tables, next)
			continue
		}

		kind := sql.JoinInner
		joined := false
		switch {
		case t.ConsumePrefix("INNER JOIN "):
			joined = true
		case t.ConsumePrefix("LEFT JOIN "):
			kind = sql.JoinLeft
			joined = true
		case t.ConsumePrefix("JOIN "):
			joined = true
		}
		if !joined {
			break
		}

		next, err := parseTableSpec(t)
		if err != nil {
			return err
		}
		next.JoinKind = kind

		if err := expectKeyword(t, "ON"); err != nil {
			return err
		}
		if err := parsePredicate(t, &next.Join, q); err != nil {
			return err
		}

		q.Tables = append(q.Tables, next)
	}

	return nil
}

func parseTableSpec(t *Tokenizer) (sql.Table, error) {
	var tbl sql.Table

	if t.Peek() == '(' {
		inner, err := t.readParenthesised()
		if err != nil {
			return tbl, err
		}
		tbl.Name = inner
		tbl.Subquery = inner
	} else {
		name, _, err := t.GetQuotedToken(MaxTableLength)
		if err != nil {
			return tbl, err
		}
		if name == "" {
			return tbl, sql.ErrSyntax.New("a table name", "end of input")
		}
		tbl.Name = name
	}

	// The alias may appear with or without AS; a bare clause keyword is
	// not an alias.
	aliased := false
	if t.ConsumePrefix("AS ") {
		alias, _, err := t.GetQuotedToken(MaxFieldLength)
		if err != nil {
			return tbl, err
		}
		tbl.Alias = alias
		aliased = true
	} else if c := t.Peek(); c != 0 && c != ',' && c != '(' {
		mark := t.Mark()
		alias, kind, err := t.GetQuotedToken(MaxFieldLength)
		if err != nil {
			return tbl, err
		}
		if alias == "" || (kind == QuoteNone && reservedWords[alias]) {
			t.Reset(mark)
		} else {
			tbl.Alias = alias
			aliased = true
		}
	}

	// FROM t AS x (a, b, c) renames the source's fields.
	if aliased && t.Peek() == '(' {
		aliases, err := t.readParenthesised()
		if err != nil {
			return tbl, err
		}
		for _, a := range strings.Split(aliases, ",") {
			tbl.ColAliases = append(tbl.ColAliases, strings.TrimSpace(a))
		}
	}

	return tbl, nil
}

// reservedWords are tokens that terminate a table spec rather than alias
// it.
var reservedWords = map[string]bool{
	"SELECT": true,
	"FROM":   true,
	"WHERE":  true,
	"GROUP":  true,
	"ORDER":  true,
	"OFFSET": true,
	"LIMIT":  true,
	"FETCH":  true,
	"INNER":  true,
	"LEFT":   true,
	"JOIN":   true,
	"ON":     true,
	"AND":    true,
}

// readParenthesised consumes a balanced parenthesised run and returns the
// text between the outer parentheses.
func (t *Tokenizer) readParenthesised() (string, error) {
	t.SkipWhitespace()
	if t.pos >= len(t.input) || t.input[t.pos] != '(' {
		return "", sql.ErrSyntax.New("'('", string(t.Peek()))
	}

	depth := 0
	start := t.pos + 1
	for ; t.pos < len(t.input); t.pos++ {
		switch t.input[t.pos] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				inner := t.input[start:t.pos]
				t.pos++
				return inner, nil
			}
		}
	}
	return "", sql.ErrSyntax.New("')'", "end of input")
}

func parsePredicates(t *Tokenizer, q *sql.Query) error {
	q.Flags |= sql.FlagHavePredicate

	for {
		var p sql.Predicate
		if err := parsePredicate(t, &p, q); err != nil {
			return err
		}
		q.Predicates = append(q.Predicates, p)

		if !t.ConsumePrefix("AND ") {
			break
		}
	}
	return nil
}

func parsePredicate(t *Tokenizer, p *sql.Predicate, q *sql.Query) error {
	flags, err := parseColumnExpr(t, &p.Left)
	if err != nil {
		return err
	}
	q.Flags |= flags & sql.FlagPrimaryKeySearch

	opToken, err := t.GetToken(5)
	if err != nil {
		return err
	}
	p.Op = sql.ParseOperator(opToken)
	if p.Op == sql.OpNever {
		return sql.ErrSyntax.New("=|!=|<|<=|>|>=|LIKE|IS", opToken)
	}
	if opToken == "IS" && t.ConsumePrefix("NOT ") {
		p.Op = sql.OpNe
	}

	flags, err = parseColumnExpr(t, &p.Right)
	if err != nil {
		return err
	}
	q.Flags |= flags & sql.FlagPrimaryKeySearch

	return nil
}

func parseOrderBy(t *Tokenizer, q *sql.Query) error {
	q.Flags |= sql.FlagOrder

	for {
		if len(q.OrderNodes) >= sql.MaxOrderColumns {
			return sql.ErrSyntax.New(fmt.Sprintf("at most %d ORDER BY columns", sql.MaxOrderColumns), "more")
		}

		var col sql.ColumnNode
		if _, err := parseColumnExpr(t, &col); err != nil {
			return err
		}

		dir := sql.Asc
		mark := t.Mark()
		tok, err := t.GetToken(MaxFieldLength)
		if err != nil {
			return err
		}
		switch tok {
		case "ASC":
		case "DESC":
			dir = sql.Desc
		default:
			t.Reset(mark)
		}

		q.OrderNodes = append(q.OrderNodes, col)
		q.OrderDirs = append(q.OrderDirs, dir)

		if t.Peek() == ',' {
			t.Advance()
			continue
		}
		break
	}
	return nil
}

func parseGroupBy(t *Tokenizer, q *sql.Query) error {
	q.Flags |= sql.FlagGroup

	for {
		var col sql.ColumnNode
		if _, err := parseColumnExpr(t, &col); err != nil {
			return err
		}
		q.GroupNodes = append(q.GroupNodes, col)

		if t.Peek() == ',' {
			t.Advance()
			continue
		}
		break
	}
	return nil
}

// Parenthesised consumes a balanced parenthesised run and returns the
// inner text.
func (t *Tokenizer) Parenthesised() (string, error) {
	return t.readParenthesised()
}

// Rest returns everything after the cursor, for clauses handed to a
// nested run verbatim (CREATE TABLE … AS <query>).
func (t *Tokenizer) Rest() string {
	t.SkipWhitespace()
	return t.input[t.pos:]
}

// Mark returns a position that Reset can rewind to.
func (t *Tokenizer) Mark() int {
	return t.pos
}

// Reset rewinds the tokenizer to a marked position.
func (t *Tokenizer) Reset(pos int) {
	t.pos = pos
}
