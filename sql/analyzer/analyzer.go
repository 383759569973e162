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

// Package analyzer opens the sources a query references and binds every
// column reference to a (table id, column index) pair or a reserved
// pseudo-column. Resolution is idempotent; the executor re-resolves sort
// and group nodes freely.
package analyzer

import (
	"strings"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/vfs"
)

// Analyzer resolves one query at a time against a driver registry.
type Analyzer struct {
	Registry *vfs.Registry
}

// New returns an Analyzer over a registry.
func New(registry *vfs.Registry) *Analyzer {
	return &Analyzer{Registry: registry}
}

// Analyze opens every table and resolves every column node in the query.
// On error the caller closes the query; partially opened sources are
// reachable through it.
func (a *Analyzer) Analyze(ctx *sql.Context, q *sql.Query) error {
	if err := a.openTables(ctx, q); err != nil {
		return err
	}

	for i := range q.Columns {
		if err := ResolveNode(q, &q.Columns[i]); err != nil {
			return err
		}
	}
	for i := range q.Predicates {
		if err := ResolveNode(q, &q.Predicates[i].Left); err != nil {
			return err
		}
		if err := ResolveNode(q, &q.Predicates[i].Right); err != nil {
			return err
		}
	}
	for i := range q.OrderNodes {
		if err := ResolveNode(q, &q.OrderNodes[i]); err != nil {
			return err
		}
	}
	for i := range q.GroupNodes {
		if err := ResolveNode(q, &q.GroupNodes[i]); err != nil {
			return err
		}
	}

	return nil
}

func (a *Analyzer) openTables(ctx *sql.Context, q *sql.Query) error {
	if len(q.Tables) == 0 {
		// Constant-only queries run over a dummy row; anything else has
		// nothing to read from.
		for i := range q.Columns {
			if q.Columns[i].Fields[0].Index != sql.FieldConstant {
				return sql.ErrNoTables.New()
			}
		}
		return nil
	}

	for i := range q.Tables {
		table := &q.Tables[i]

		if table.Alias == "" {
			table.Alias = table.Name
		}

		// A self join reuses the already-open source.
		opened := false
		for j := 0; j < i; j++ {
			if q.Tables[j].Name == table.Name && q.Tables[j].Subquery == table.Subquery {
				table.Source = q.Tables[j].Source
				opened = true
				break
			}
		}

		if !opened {
			var err error
			if table.Subquery != "" {
				table.Source, err = a.Registry.OpenSubquery(ctx, table.Subquery)
			} else {
				table.Source, err = a.Registry.Open(ctx, table.Name)
			}
			if err != nil {
				return err
			}
		}

		if len(table.ColAliases) > 0 {
			if renamer, ok := table.Source.(vfs.Renamer); ok {
				renamer.RenameFields(table.ColAliases)
			}
		}

		if table.Join.Op != sql.OpAlways {
			if err := ResolveNode(q, &table.Join.Left); err != nil {
				return err
			}
			if err := ResolveNode(q, &table.Join.Right); err != nil {
				return err
			}
		}
	}

	return nil
}

// ResolveNode binds a column node's fields. Already-resolved fields and
// constants pass through untouched, so calling it repeatedly is safe.
func ResolveNode(q *sql.Query, col *sql.ColumnNode) error {
	for i := range col.Fields {
		f := &col.Fields[i]
		if f.Index != sql.FieldUnknown || f.Text == "" {
			continue
		}
		if !findColumn(q, f) {
			return sql.ErrColumnNotFound.New(f.Text)
		}
	}
	return nil
}

// findColumn resolves one field reference. A dotted name binds its prefix
// to a table name or alias; a bare name binds to the first table carrying
// a column of that name. rowid binds to the row-index pseudo-column of the
// first table.
func findColumn(q *sql.Query, f *sql.Field) bool {
	text := f.Text

	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		prefix, suffix := text[:dot], text[dot+1:]

		for i := range q.Tables {
			if q.Tables[i].Name != prefix && q.Tables[i].Alias != prefix {
				continue
			}
			f.TableID = i
			switch suffix {
			case "*":
				f.Index = sql.FieldStar
			case "rowid":
				f.Index = sql.FieldRowIndex
			default:
				f.Index = q.Tables[i].Source.FieldIndex(suffix)
			}
			return f.Index != sql.FieldUnknown
		}
		return false
	}

	if text == "rowid" {
		f.TableID = 0
		f.Index = sql.FieldRowIndex
		return true
	}

	for i := range q.Tables {
		if idx := q.Tables[i].Source.FieldIndex(text); idx != sql.FieldUnknown {
			f.TableID = i
			f.Index = idx
			return true
		}
	}

	return false
}
