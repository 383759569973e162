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
	"context"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/internal/dates"
	"github.com/flatbase/flatsql/sql"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestCalendarFields(t *testing.T) {
	require := require.New(t)

	cal := OpenCalendar("CALENDAR")
	require.Equal(28, cal.FieldCount())
	require.Equal(sql.FieldRowIndex, cal.FieldIndex("julian"))
	require.Equal(sql.FieldRowIndex, cal.FieldIndex("rowid"))
	require.Equal(sql.FieldUnknown, cal.FieldIndex("bogus"))

	julian := dates.DateTime{Year: 2020, Month: 2, Day: 29}.Julian()

	testCases := []struct {
		field    string
		expected string
	}{
		{"date", "2020-02-29"},
		{"year", "2020"},
		{"month", "2"},
		{"day", "29"},
		{"quarter", "1"},
		{"isLeapYear", "1"},
		{"firstOfMonth", "2020-02-01"},
		{"lastOfMonth", "2020-02-29"},
		{"firstOfYear", "2020-01-01"},
		{"lastOfYear", "2020-12-31"},
		{"firstOfQuarter", "2020-01-01"},
		{"lastOfQuarter", "2020-03-31"},
		{"monthString", "2020-02"},
		{"weekday", "6"},
		{"isWeekend", "1"},
	}

	for _, tc := range testCases {
		value, err := cal.RecordValue(julian, cal.FieldIndex(tc.field))
		require.NoError(err, tc.field)
		require.Equal(tc.expected, value, tc.field)
	}
}

func TestCalendarScanNarrowsRange(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	cal := OpenCalendar("CALENDAR").(*calendar)

	year := sql.ColumnNode{}
	year.Fields[0] = sql.Field{Text: "year", TableID: 0, Index: cal.FieldIndex("year")}
	month := sql.ColumnNode{}
	month.Fields[0] = sql.Field{Text: "month", TableID: 0, Index: cal.FieldIndex("month")}

	predicates := []sql.Predicate{
		{Op: sql.OpEq, Left: year, Right: constNode("2020")},
		{Op: sql.OpEq, Left: month, Right: constNode("2")},
	}

	list := sql.NewRowList(1, 400)
	require.NoError(cal.ScanTable(ctx, list, predicates, -1))

	// Every day of February 2020, in Julian order.
	require.Equal(29, list.RowCount)
	first, err := cal.RecordValue(list.RowID(0, 0), cal.FieldIndex("date"))
	require.NoError(err)
	require.Equal("2020-02-01", first)
	last, err := cal.RecordValue(list.RowID(0, 28), cal.FieldIndex("date"))
	require.NoError(err)
	require.Equal("2020-02-29", last)
}

func constNode(value string) sql.ColumnNode {
	col := sql.ColumnNode{}
	col.Fields[0] = sql.ConstantField(value)
	return col
}

func TestSequence(t *testing.T) {
	require := require.New(t)

	src, err := OpenSequence("SEQUENCE(5)")
	require.NoError(err)

	require.Equal(5, src.RecordCount())
	require.Equal(1, src.FieldCount())
	require.Equal(0, src.FieldIndex("value"))

	value, err := src.RecordValue(3, 0)
	require.NoError(err)
	require.Equal("3", value)

	_, err = OpenSequence("SEQUENCE(nope)")
	require.Error(err)
}

func TestSampleDeterministicWithSeed(t *testing.T) {
	require := require.New(t)

	read := func() []string {
		ctx := sql.NewContext(context.Background(),
			sql.WithRand(rand.New(rand.NewSource(42))))
		src := OpenSample(ctx, "SAMPLE")

		var values []string
		for i := 0; i < 5; i++ {
			for field := 0; field < 4; field++ {
				v, err := src.RecordValue(i, field)
				require.NoError(err)
				values = append(values, v)
			}
		}
		return values
	}

	first := read()
	second := read()
	require.Equal(first, second)

	// Birth dates come out of the LCG as plausible dates.
	_, ok := dates.Parse(first[2])
	require.True(ok)
}

func TestDirListing(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	writeFile(t, dir, "one.txt", "hello")
	writeFile(t, dir, "two.txt", "world!")
	require.NoError(os.Mkdir(dir+"/sub", 0755))

	src, err := OpenDir("DIR(" + dir + ")")
	require.NoError(err)
	defer src.Close()

	require.Equal(3, src.RecordCount())
	require.Equal(7, src.FieldCount())

	names := map[string]string{}
	for i := 0; i < src.RecordCount(); i++ {
		name, err := src.RecordValue(i, src.FieldIndex("name"))
		require.NoError(err)
		kind, err := src.RecordValue(i, src.FieldIndex("type"))
		require.NoError(err)
		names[name] = kind
	}

	require.Equal("f", names["one.txt"])
	require.Equal("d", names["sub"])

	for i := 0; i < src.RecordCount(); i++ {
		name, _ := src.RecordValue(i, src.FieldIndex("name"))
		if name != "one.txt" {
			continue
		}
		size, err := src.RecordValue(i, src.FieldIndex("size"))
		require.NoError(err)
		require.Equal("5", size)
		modified, err := src.RecordValue(i, src.FieldIndex("modified"))
		require.NoError(err)
		_, ok := dates.Parse(modified)
		require.True(ok)
	}
}

func TestRegistryOpenResolution(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, dir, "people.csv", peopleCSV)

	reg := &Registry{}
	ctx := sql.NewEmptyContext()

	// A plain name falls through to name.csv.
	src, err := reg.Open(ctx, "people")
	require.NoError(err)
	require.Equal(4, src.RecordCount())
	src.Close()

	_, err = reg.Open(ctx, "missing")
	require.True(sql.ErrTableNotFound.Is(err))

	src, err = reg.Open(ctx, "CALENDAR")
	require.NoError(err)
	require.Equal(28, src.FieldCount())
}

func TestRegistryView(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, dir, "top.sql", "SELECT name FROM people ORDER BY score DESC")

	reg := &Registry{
		Runner: func(ctx *sql.Context, query string, w io.Writer) error {
			require.Equal("SELECT name FROM people ORDER BY score DESC", query)
			_, err := io.WriteString(w, "name\nBob\nCara\n")
			return err
		},
	}

	src, err := reg.Open(sql.NewEmptyContext(), "top")
	require.NoError(err)
	defer src.Close()

	require.Equal(2, src.RecordCount())
	value, err := src.RecordValue(0, 0)
	require.NoError(err)
	require.Equal("Bob", value)
}

func TestRegistryStdin(t *testing.T) {
	require := require.New(t)

	reg := &Registry{Stdin: strings.NewReader(peopleCSV)}
	src, err := reg.Open(sql.NewEmptyContext(), "stdin")
	require.NoError(err)

	require.Equal(4, src.RecordCount())
	require.Equal(1, src.FieldIndex("name"))
}

func TestFindIndexKind(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, dir, "people__score.index.csv", "score,rowid\n5,3\n10,0\n20,1\n20,2\n")
	writeFile(t, dir, "people__id.unique.csv", "id,rowid\n1,0\n2,1\n3,2\n4,3\n")

	require.Equal(sql.IndexRegular, FindIndexKind("people", "score", sql.IndexNone))
	require.Equal(sql.IndexUnique, FindIndexKind("people", "id", sql.IndexNone))
	require.Equal(sql.IndexNone, FindIndexKind("people", "score", sql.IndexUnique))
	require.Equal(sql.IndexNone, FindIndexKind("people", "name", sql.IndexNone))
	require.Equal(sql.IndexNone, FindIndexKind("CALENDAR", "year", sql.IndexNone))

	idx, kind, err := OpenIndex("people", "id", sql.IndexNone)
	require.NoError(err)
	require.Equal(sql.IndexUnique, kind)
	require.Equal(1, idx.FieldIndex("rowid"))
	idx.Close()

	_, _, err = OpenIndex("people", "name", sql.IndexNone)
	require.True(sql.ErrIndexNotFound.Is(err))
}
