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
	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/sql"
)

// Static token maxima. Overflow surfaces as sql.ErrTokenTooLong.
const (
	MaxFieldLength = 255
	MaxTableLength = 255
	MaxValueLength = 4096
)

// QuoteKind reports how a token was quoted in the input.
type QuoteKind int

const (
	QuoteNone   QuoteKind = 0
	QuoteSingle QuoteKind = 1 // string literal
	QuoteDouble QuoteKind = 2 // identifier
)

// Tokenizer is a cursor over a query string. Tokens are bare words split on
// whitespace, commas and control characters; parentheses and operator
// characters stay inside tokens so call sites can parse FUNC(arg) and >=
// without lookahead.
type Tokenizer struct {
	input string
	pos   int
}

// NewTokenizer returns a tokenizer at the start of input.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// Pos returns the current byte offset, for error reporting.
func (t *Tokenizer) Pos() int {
	return t.pos
}

// EOF reports whether the cursor has consumed all input.
func (t *Tokenizer) EOF() bool {
	t.SkipWhitespace()
	return t.pos >= len(t.input)
}

// Peek returns the byte under the cursor after skipping whitespace, or 0 at
// end of input.
func (t *Tokenizer) Peek() byte {
	t.SkipWhitespace()
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

// Advance consumes one byte.
func (t *Tokenizer) Advance() {
	if t.pos < len(t.input) {
		t.pos++
	}
}

// HasPrefix reports whether the remaining input starts with s, after
// skipping whitespace.
func (t *Tokenizer) HasPrefix(s string) bool {
	t.SkipWhitespace()
	if t.pos+len(s) > len(t.input) {
		return false
	}
	return t.input[t.pos:t.pos+len(s)] == s
}

// ConsumePrefix consumes s if the remaining input starts with it.
func (t *Tokenizer) ConsumePrefix(s string) bool {
	if t.HasPrefix(s) {
		t.pos += len(s)
		return true
	}
	return false
}

// SkipWhitespace consumes spaces, tabs, newlines and -- end-of-line
// comments.
func (t *Tokenizer) SkipWhitespace() {
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			t.pos++
			continue
		}
		if c == '-' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '-' {
			for t.pos < len(t.input) && t.input[t.pos] != '\n' {
				t.pos++
			}
			continue
		}
		break
	}
}

func isTokenEnd(c byte) bool {
	return c == ' ' || c == ',' || c < 0x20
}

// skipToken advances past the token under the cursor, honouring single and
// double quotes.
func (t *Tokenizer) skipToken() {
	if t.pos >= len(t.input) {
		return
	}

	quote := t.input[t.pos]
	if quote == '\'' || quote == '"' {
		t.pos++
		for t.pos < len(t.input) && t.input[t.pos] != quote {
			t.pos++
		}
		if t.pos < len(t.input) {
			t.pos++
		}
		return
	}

	for t.pos < len(t.input) && !isTokenEnd(t.input[t.pos]) {
		t.pos++
	}
}

// GetToken returns the next unquoted token. The empty string is returned at
// end of input.
func (t *Tokenizer) GetToken(maxLength int) (string, error) {
	t.SkipWhitespace()
	if t.pos >= len(t.input) {
		return "", nil
	}

	start := t.pos
	t.skipToken()

	token := t.input[start:t.pos]
	if len(token) > maxLength {
		return "", sql.ErrTokenTooLong.New(maxLength)
	}
	return token, nil
}

// GetQuotedToken returns the next token together with its quote kind.
// Surrounding quotes are stripped.
func (t *Tokenizer) GetQuotedToken(maxLength int) (string, QuoteKind, error) {
	t.SkipWhitespace()
	if t.pos >= len(t.input) {
		return "", QuoteNone, nil
	}

	kind := QuoteNone
	switch t.input[t.pos] {
	case '\'':
		kind = QuoteSingle
	case '"':
		kind = QuoteDouble
	}

	start := t.pos
	t.skipToken()
	token := t.input[start:t.pos]

	if kind != QuoteNone {
		token = token[1:]
		if len(token) > 0 && (token[len(token)-1] == '\'' || token[len(token)-1] == '"') {
			token = token[:len(token)-1]
		}
	}

	if len(token) > maxLength {
		return "", kind, sql.ErrTokenTooLong.New(maxLength)
	}
	return token, kind, nil
}

// GetNumericToken reads a token and parses it as a signed integer.
func (t *Tokenizer) GetNumericToken() (int, error) {
	token, err := t.GetToken(MaxFieldLength)
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(token)
	if err != nil {
		return 0, sql.ErrSyntax.New("a number", token)
	}
	return n, nil
}
