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

// Package vfs provides the table-source drivers: delimited files (streaming
// and in-memory), the CALENDAR/SEQUENCE/SAMPLE generators, directory
// listings, and view/subquery materialisation. Every driver implements
// sql.Source; the engine never knows which one it got.
package vfs

import (
	"io"
	"os"
	"strings"

	"github.com/flatbase/flatsql/sql"
)

// SubqueryRunner materialises a nested query as headed CSV into w. The
// engine provides itself here, so views and FROM-subqueries run through
// the same pipeline.
type SubqueryRunner func(ctx *sql.Context, query string, w io.Writer) error

// Registry opens sources by name.
type Registry struct {
	// Runner executes nested queries for views and subqueries.
	Runner SubqueryRunner

	// Stdin is the stream backing the table named "stdin".
	Stdin io.Reader
}

// Open resolves a FROM name to a driver. Plain names try the file itself,
// then name.csv, then name.sql (a view).
func (r *Registry) Open(ctx *sql.Context, name string) (sql.Source, error) {
	switch {
	case name == "stdin":
		in := r.Stdin
		if in == nil {
			in = os.Stdin
		}
		return OpenMemoryCSVReader(name, in)

	case name == "CALENDAR":
		return OpenCalendar(name), nil

	case name == "SAMPLE":
		return OpenSample(ctx, name), nil

	case strings.HasPrefix(name, "SEQUENCE("):
		return OpenSequence(name)

	case strings.HasPrefix(name, "DIR("):
		return OpenDir(name)
	}

	if fileExists(name) {
		if strings.HasSuffix(name, ".sql") {
			return r.openView(ctx, name)
		}
		return OpenCSV(name, name)
	}

	if fileExists(name + ".csv") {
		return OpenCSV(name, name+".csv")
	}

	if fileExists(name + ".sql") {
		return r.openView(ctx, name+".sql")
	}

	return nil, sql.ErrTableNotFound.New(name)
}

// OpenSubquery materialises a nested query to a temporary CSV file and
// opens it with the in-memory driver. The file is removed once read.
func (r *Registry) OpenSubquery(ctx *sql.Context, query string) (sql.Source, error) {
	f, err := os.CreateTemp("", "flatsql.*.csv")
	if err != nil {
		return nil, err
	}
	name := f.Name()
	defer os.Remove(name)

	if err := r.Runner(ctx, query, f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	src, err := OpenMemoryCSV(query, name)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// openView executes the query stored in a .sql file as a subquery.
func (r *Registry) openView(ctx *sql.Context, path string) (sql.Source, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, sql.ErrTableNotFound.New(path)
	}
	query := strings.TrimSpace(string(text))
	if query == "" {
		return nil, sql.ErrEmptySource.New(path)
	}
	return r.OpenSubquery(ctx, query)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Renamer is implemented by sources whose fields can be renamed, which
// backs FROM-clause column aliasing.
type Renamer interface {
	RenameFields(names []string)
}
