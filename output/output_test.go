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

package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/sql"
)

type fixedSource struct {
	fields []string
	rows   [][]string
}

func (f *fixedSource) Name() string     { return "t" }
func (f *fixedSource) Close() error     { return nil }
func (f *fixedSource) FieldCount() int  { return len(f.fields) }
func (f *fixedSource) RecordCount() int { return len(f.rows) }

func (f *fixedSource) FieldIndex(name string) int {
	for i, field := range f.fields {
		if field == name {
			return i
		}
	}
	return sql.FieldUnknown
}

func (f *fixedSource) FieldName(i int) string {
	return f.fields[i]
}

func (f *fixedSource) RecordValue(rowID, field int) (string, error) {
	if rowID < 0 || rowID >= len(f.rows) {
		return "", fmt.Errorf("t: record %d out of range", rowID)
	}
	return f.rows[rowID][field], nil
}

func fixture() (*sql.Query, *sql.RowList) {
	src := &fixedSource{
		fields: []string{"name", "score"},
		rows:   [][]string{{"Bob", "20"}, {"a,b", "5"}},
	}

	name := sql.ColumnNode{Alias: "name"}
	name.Fields[0] = sql.Field{Text: "name", TableID: 0, Index: 0}
	score := sql.ColumnNode{Alias: "score"}
	score.Fields[0] = sql.Field{Text: "score", TableID: 0, Index: 1}

	q := &sql.Query{
		Tables:  []sql.Table{{Name: "t", Alias: "t", Source: src}},
		Columns: []sql.ColumnNode{name, score},
		Limit:   -1,
	}

	list := sql.NewRowList(1, 2)
	list.Append(0)
	list.Append(1)
	return q, list
}

func render(t *testing.T, opts Options) string {
	t.Helper()

	q, list := fixture()
	ctx := sql.NewEmptyContext()

	var buf bytes.Buffer
	w := NewWriter(&buf, opts)
	require.NoError(t, w.Preamble())
	require.NoError(t, w.HeaderLineIfWanted(q))
	for i := 0; i < list.RowCount; i++ {
		require.NoError(t, w.ResultLine(ctx, q, list, i))
	}
	require.NoError(t, w.Postamble())
	return buf.String()
}

func TestTSVOutput(t *testing.T) {
	expected := "name\tscore\nBob\t20\na,b\t5\n"
	require.Equal(t, expected, render(t, Options{Format: TSV, Headers: true}))
}

func TestCSVOutputQuotesCommas(t *testing.T) {
	expected := "name,score\nBob,20\n\"a,b\",5\n"
	require.Equal(t, expected, render(t, Options{Format: CSV, Headers: true}))
}

func TestJSONOutput(t *testing.T) {
	expected := `[{"name": "Bob","score": 20},{"name": "a,b","score": 5}]` + "\n"
	require.Equal(t, expected, render(t, Options{Format: JSON, Headers: true}))
}

func TestJSONArrayOutput(t *testing.T) {
	expected := `[["name","score"],["Bob",20],["a,b",5]]` + "\n"
	require.Equal(t, expected, render(t, Options{Format: JSONArray, Headers: true}))
}

func TestSQLInsertOutput(t *testing.T) {
	expected := "INSERT INTO \"t\" (\"name\",\"score\") VALUES\n('Bob',20),\n('a,b',5)\n"
	require.Equal(t, expected, render(t, Options{Format: SQLInsert, Headers: true}))
}

func TestHTMLOutput(t *testing.T) {
	out := render(t, Options{Format: HTML, Headers: true})
	require.Contains(t, out, "<TABLE CLASS=\"flatsql\">")
	require.Contains(t, out, "<TR><TH>name</TH><TH>score</TH></TR>")
	require.Contains(t, out, "<TR><TD>Bob</TD><TD>20</TD></TR>")
	require.Contains(t, out, "</TABLE>")
}

func TestTableOutput(t *testing.T) {
	out := render(t, Options{Format: Table, Headers: true})
	require.Contains(t, out, "name                ")
	require.Contains(t, out, "Bob                 ")
	require.Contains(t, out, "                 20 ")
}

func TestNoHeaders(t *testing.T) {
	require.Equal(t, "Bob\t20\na,b\t5\n", render(t, Options{Format: TSV}))
}

func TestParseFormat(t *testing.T) {
	require := require.New(t)

	for name, expected := range map[string]Format{
		"tsv":        TSV,
		"csv":        CSV,
		"json":       JSON,
		"json_array": JSONArray,
		"html":       HTML,
		"sql":        SQLInsert,
		"table":      Table,
	} {
		f, ok := ParseFormat(name)
		require.True(ok)
		require.Equal(expected, f)
	}

	_, ok := ParseFormat("yaml")
	require.False(ok)
}
