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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/sql"
)

func TestGetToken(t *testing.T) {
	require := require.New(t)

	tok := NewTokenizer("SELECT name,score FROM people")

	for _, expected := range []string{"SELECT", "name"} {
		token, err := tok.GetToken(MaxFieldLength)
		require.NoError(err)
		require.Equal(expected, token)
	}

	// The comma is a separator, not part of the token.
	require.Equal(byte(','), tok.Peek())
	tok.Advance()

	for _, expected := range []string{"score", "FROM", "people", ""} {
		token, err := tok.GetToken(MaxFieldLength)
		require.NoError(err)
		require.Equal(expected, token)
	}
}

func TestGetTokenKeepsOperatorsAndParens(t *testing.T) {
	require := require.New(t)

	tok := NewTokenizer("score >= COUNT(name)")

	expected := []string{"score", ">=", "COUNT(name)"}
	for _, want := range expected {
		token, err := tok.GetToken(MaxFieldLength)
		require.NoError(err)
		require.Equal(want, token)
	}
}

func TestSkipWhitespaceAndComments(t *testing.T) {
	require := require.New(t)

	tok := NewTokenizer("  -- a comment\n\t SELECT -- more\nname")

	token, err := tok.GetToken(MaxFieldLength)
	require.NoError(err)
	require.Equal("SELECT", token)

	token, err = tok.GetToken(MaxFieldLength)
	require.NoError(err)
	require.Equal("name", token)
}

func TestGetQuotedToken(t *testing.T) {
	testCases := []struct {
		input string
		token string
		kind  QuoteKind
	}{
		{"name", "name", QuoteNone},
		{"'a literal'", "a literal", QuoteSingle},
		{`"a field"`, "a field", QuoteDouble},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			tok := NewTokenizer(tc.input)
			token, kind, err := tok.GetQuotedToken(MaxFieldLength)
			require.NoError(t, err)
			require.Equal(t, tc.token, token)
			require.Equal(t, tc.kind, kind)
		})
	}
}

func TestGetNumericToken(t *testing.T) {
	require := require.New(t)

	tok := NewTokenizer("42 -7 abc")

	n, err := tok.GetNumericToken()
	require.NoError(err)
	require.Equal(42, n)

	n, err = tok.GetNumericToken()
	require.NoError(err)
	require.Equal(-7, n)

	_, err = tok.GetNumericToken()
	require.Error(err)
}

func TestTokenTooLong(t *testing.T) {
	tok := NewTokenizer("abcdefghij")
	_, err := tok.GetToken(5)
	require.True(t, sql.ErrTokenTooLong.Is(err))
}

func TestParenthesised(t *testing.T) {
	require := require.New(t)

	tok := NewTokenizer("(SELECT MAX(score) FROM people) x")
	inner, err := tok.Parenthesised()
	require.NoError(err)
	require.Equal("SELECT MAX(score) FROM people", inner)

	token, err := tok.GetToken(MaxFieldLength)
	require.NoError(err)
	require.Equal("x", token)
}
