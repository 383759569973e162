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

// Package output renders projected rows in the supported formats. CSV
// output doubles as the interchange format for views and subqueries, so
// it must quote values containing commas.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/expression"
)

// Format selects an output emitter.
type Format int

const (
	TSV Format = iota
	CSV
	JSON
	JSONArray
	HTML
	SQLInsert
	Table
)

// ParseFormat maps a format name from the command line.
func ParseFormat(name string) (Format, bool) {
	switch name {
	case "tsv":
		return TSV, true
	case "csv":
		return CSV, true
	case "json":
		return JSON, true
	case "json_array":
		return JSONArray, true
	case "html":
		return HTML, true
	case "sql":
		return SQLInsert, true
	case "table":
		return Table, true
	}
	return TSV, false
}

// Escaped reports whether the format wraps values in its own syntax, which
// rules out concat columns and makes the engine wrap such queries in a CSV
// subquery first.
func (f Format) Escaped() bool {
	switch f {
	case JSON, JSONArray, SQLInsert, Table:
		return true
	}
	return false
}

// Options configures a Writer.
type Options struct {
	Format  Format
	Headers bool
}

// Writer emits one result set.
type Writer struct {
	w    io.Writer
	opts Options

	rowsWritten int
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{w: w, opts: opts}
}

// htmlStyle is the fixed style block emitted before HTML tables.
const htmlStyle = `<META CHARSET="UTF8" /><STYLE>.flatsql{font-family:sans-serif;width:100%;border-collapse:collapse}.flatsql th{text-transform:capitalize}.flatsql th{border-bottom:1px solid #333}.flatsql td{padding:.5em 0}.flatsql tr:hover td{background-color:#f8f8f8}</STYLE>
<TABLE CLASS="flatsql">
`

// Preamble emits any leading format syntax.
func (o *Writer) Preamble() error {
	switch o.opts.Format {
	case HTML:
		_, err := io.WriteString(o.w, htmlStyle)
		return err
	case JSON, JSONArray:
		_, err := io.WriteString(o.w, "[")
		return err
	}
	return nil
}

// Postamble closes the output.
func (o *Writer) Postamble() error {
	switch o.opts.Format {
	case HTML:
		_, err := io.WriteString(o.w, "</TABLE>\n")
		return err
	case JSON, JSONArray:
		_, err := io.WriteString(o.w, "]\n")
		return err
	case SQLInsert:
		_, err := io.WriteString(o.w, "\n")
		return err
	}
	return nil
}

// HeaderLineIfWanted emits the header row only when headers were asked
// for.
func (o *Writer) HeaderLineIfWanted(q *sql.Query) error {
	if !o.opts.Headers {
		return nil
	}
	return o.HeaderLine(q)
}

// HeaderLine emits the header row when the format has one.
func (o *Writer) HeaderLine(q *sql.Query) error {
	sep, end := "\t", "\n"
	format := o.opts.Format
	stringFmt := "%s"

	switch format {
	case JSON:
		return nil
	case CSV:
		sep = ","
	case HTML:
		if _, err := io.WriteString(o.w, "<TR><TH>"); err != nil {
			return err
		}
		sep, end = "</TH><TH>", "</TH></TR>\n"
	case JSONArray:
		if _, err := io.WriteString(o.w, `["`); err != nil {
			return err
		}
		sep, end = `","`, "\"],"
	case SQLInsert:
		if _, err := fmt.Fprintf(o.w, "INSERT INTO %q (\"", q.Tables[0].Alias); err != nil {
			return err
		}
		sep, end = `","`, "\") VALUES\n"
	case Table:
		sep = ""
		stringFmt = "%-20s"
	}

	for j := range q.Columns {
		col := &q.Columns[j]

		if col.Concat {
			// Concat members after the first contribute no header.
			continue
		}

		switch {
		case col.Fields[0].Index == sql.FieldStar:
			if err := o.allHeaders(q, col, sep, stringFmt); err != nil {
				return err
			}
		case col.Alias != "":
			if _, err := fmt.Fprintf(o.w, stringFmt, col.Alias); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintf(o.w, stringFmt, col.Fields[0].Text); err != nil {
				return err
			}
		}

		if j < len(q.Columns)-1 && !q.Columns[j+1].Concat {
			if _, err := io.WriteString(o.w, sep); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(o.w, end)
	return err
}

func (o *Writer) allHeaders(q *sql.Query, col *sql.ColumnNode, sep, stringFmt string) error {
	tables := q.Tables
	if col.Fields[0].TableID >= 0 {
		tables = q.Tables[col.Fields[0].TableID : col.Fields[0].TableID+1]
	}

	for m := range tables {
		src := tables[m].Source
		prefix := ""
		if len(q.Tables) > 1 {
			prefix = tables[m].Alias + "."
		}

		for k := 0; k < src.FieldCount(); k++ {
			if _, err := fmt.Fprintf(o.w, stringFmt, prefix+src.FieldName(k)); err != nil {
				return err
			}
			if k < src.FieldCount()-1 {
				if _, err := io.WriteString(o.w, sep); err != nil {
					return err
				}
			}
		}

		if m < len(tables)-1 {
			if _, err := io.WriteString(o.w, sep); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResultLine emits one projected row. index selects the row inside list;
// aggregate columns read the whole list.
func (o *Writer) ResultLine(ctx *sql.Context, q *sql.Query, list *sql.RowList, index int) error {
	sep, end, recordSep := "\t", "\n", ""
	stringFmt, numFmt := "%s", "%d"
	format := o.opts.Format

	switch format {
	case CSV:
		sep = ","
	case HTML:
		sep, end = "</TD><TD>", "</TD></TR>\n"
	case JSONArray:
		stringFmt, sep, end, recordSep = "%q", ",", "]", ","
	case JSON:
		stringFmt, sep, end, recordSep = "%q", ",", "}", ","
	case SQLInsert:
		stringFmt, sep, end, recordSep = "'%s'", ",", ")", ",\n"
	case Table:
		sep, stringFmt, numFmt = "", "%-20s", "%19d "
	}

	if o.rowsWritten > 0 && recordSep != "" {
		if _, err := io.WriteString(o.w, recordSep); err != nil {
			return err
		}
	}
	o.rowsWritten++

	switch format {
	case HTML:
		if _, err := io.WriteString(o.w, "<TR><TD>"); err != nil {
			return err
		}
	case JSONArray:
		if _, err := io.WriteString(o.w, "["); err != nil {
			return err
		}
	case JSON:
		if _, err := io.WriteString(o.w, "{"); err != nil {
			return err
		}
	case SQLInsert:
		if _, err := io.WriteString(o.w, "("); err != nil {
			return err
		}
	}

	for j := range q.Columns {
		col := &q.Columns[j]

		if format.Escaped() && col.Concat {
			return sql.ErrUnsupportedFeature.New("concat columns in escaped output formats")
		}

		if format == JSON && col.Fields[0].Index != sql.FieldStar {
			if _, err := fmt.Fprintf(o.w, "%q: ", col.Alias); err != nil {
				return err
			}
		}

		if err := o.columnValue(ctx, q, list, index, col, sep, stringFmt, numFmt); err != nil {
			return err
		}

		if j < len(q.Columns)-1 && !q.Columns[j+1].Concat {
			if _, err := io.WriteString(o.w, sep); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(o.w, end)
	return err
}

func (o *Writer) columnValue(ctx *sql.Context, q *sql.Query, list *sql.RowList, index int, col *sql.ColumnNode, sep, stringFmt, numFmt string) error {
	field := col.Fields[0]

	// An aggregate line over an empty list has no representative row;
	// anything that would read one prints NULL.
	if index < 0 {
		switch {
		case field.Index == sql.FieldCountStar:
			_, err := fmt.Fprintf(o.w, numFmt, list.RowCount)
			return err
		case field.Index == sql.FieldConstant:
			value, err := expression.Evaluate(ctx, q, list, 0, col)
			if err != nil {
				return err
			}
			return o.value(value, stringFmt, numFmt)
		case col.Function.IsAggregate():
			value, err := expression.EvaluateAggregate(ctx, q, list, col)
			if err != nil {
				return err
			}
			return o.value(value, stringFmt, numFmt)
		}
		return o.value("", stringFmt, numFmt)
	}

	switch {
	case field.Index == sql.FieldStar:
		return o.allColumns(ctx, q, list, index, col, sep, stringFmt, numFmt)

	case field.Index == sql.FieldCountStar:
		_, err := fmt.Fprintf(o.w, numFmt, list.RowCount)
		return err

	case field.Index == sql.FieldRowNumber:
		// ROW_NUMBER() is 1-indexed.
		_, err := fmt.Fprintf(o.w, numFmt, index+1)
		return err

	case field.Index == sql.FieldRowIndex:
		_, err := fmt.Fprintf(o.w, numFmt, list.RowID(field.TableID, index))
		return err

	case col.Function.IsAggregate():
		value, err := expression.EvaluateAggregate(ctx, q, list, col)
		if err != nil {
			return err
		}
		return o.value(value, stringFmt, numFmt)
	}

	value, err := expression.Evaluate(ctx, q, list, index, col)
	if err != nil {
		return err
	}
	return o.value(value, stringFmt, numFmt)
}

func (o *Writer) allColumns(ctx *sql.Context, q *sql.Query, list *sql.RowList, index int, col *sql.ColumnNode, sep, stringFmt, numFmt string) error {
	tableIDs := make([]int, 0, len(q.Tables))
	if col.Fields[0].TableID >= 0 {
		tableIDs = append(tableIDs, col.Fields[0].TableID)
	} else {
		for i := range q.Tables {
			tableIDs = append(tableIDs, i)
		}
	}

	for m, tableID := range tableIDs {
		src := q.Tables[tableID].Source
		rowID := list.RowID(tableID, index)

		for k := 0; k < src.FieldCount(); k++ {
			if o.opts.Format == JSON {
				key := src.FieldName(k)
				if len(q.Tables) > 1 {
					key = q.Tables[tableID].Alias + "." + key
				}
				if _, err := fmt.Fprintf(o.w, "%q: ", key); err != nil {
					return err
				}
			}

			value := ""
			if rowID != sql.RowIDNull {
				var err error
				value, err = src.RecordValue(rowID, k)
				if err != nil {
					return err
				}
			}
			if err := o.value(value, stringFmt, numFmt); err != nil {
				return err
			}

			if k < src.FieldCount()-1 {
				if _, err := io.WriteString(o.w, sep); err != nil {
					return err
				}
			}
		}

		if m < len(tableIDs)-1 {
			if _, err := io.WriteString(o.w, sep); err != nil {
				return err
			}
		}
	}
	return nil
}

// value writes one scalar, choosing the numeric form when the text looks
// numeric and quoting commas in CSV.
func (o *Writer) value(value, stringFmt, numFmt string) error {
	if sql.IsNumeric(value) {
		_, err := fmt.Fprintf(o.w, numFmt, cast.ToInt64(value))
		return err
	}
	if o.opts.Format == CSV && strings.ContainsRune(value, ',') {
		_, err := fmt.Fprintf(o.w, "%q", value)
		return err
	}
	_, err := fmt.Fprintf(o.w, stringFmt, value)
	return err
}
