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

package flatsql

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/flatbase/flatsql/output"
	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/parse"
)

// createQuery dispatches CREATE TABLE / VIEW / INDEX.
func (e *Engine) createQuery(ctx *sql.Context, query string) error {
	t := parse.NewTokenizer(query)

	if err := expectToken(t, "CREATE"); err != nil {
		return err
	}

	keyword, err := t.GetToken(parse.MaxFieldLength)
	if err != nil {
		return err
	}

	switch keyword {
	case "TABLE":
		return e.createTableQuery(ctx, t)
	case "VIEW":
		return e.createViewQuery(t)
	case "INDEX":
		return e.createIndexQuery(ctx, t, false)
	case "UNIQUE":
		if err := expectToken(t, "INDEX"); err != nil {
			return err
		}
		return e.createIndexQuery(ctx, t, true)
	}

	return sql.ErrSyntax.New("TABLE|VIEW|INDEX|UNIQUE INDEX", keyword)
}

// createTableQuery handles CREATE TABLE name AS SELECT…: the projection is
// materialised into name.csv.
func (e *Engine) createTableQuery(ctx *sql.Context, t *parse.Tokenizer) error {
	name, _, err := t.GetQuotedToken(parse.MaxTableLength)
	if err != nil {
		return err
	}
	if err := expectToken(t, "AS"); err != nil {
		return err
	}

	f, err := os.Create(name + ".csv")
	if err != nil {
		return sql.ErrTableNotFound.New(name + ".csv")
	}
	defer f.Close()

	return e.selectQuery(ctx, t.Rest(), f, output.Options{Format: output.CSV, Headers: true})
}

// createViewQuery handles CREATE VIEW name AS …: the query text itself is
// stored in name.sql and executed on open.
func (e *Engine) createViewQuery(t *parse.Tokenizer) error {
	name, _, err := t.GetQuotedToken(parse.MaxTableLength)
	if err != nil {
		return err
	}
	if err := expectToken(t, "AS"); err != nil {
		return err
	}

	return os.WriteFile(name+".sql", []byte(t.Rest()+"\n"), 0644)
}

// insertQuery handles INSERT INTO name SELECT…, appending the projection
// to name.csv.
func (e *Engine) insertQuery(ctx *sql.Context, query string) error {
	t := parse.NewTokenizer(query)

	if err := expectToken(t, "INSERT"); err != nil {
		return err
	}
	if err := expectToken(t, "INTO"); err != nil {
		return err
	}

	name, _, err := t.GetQuotedToken(parse.MaxTableLength)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(name+".csv", os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return sql.ErrTableNotFound.New(name + ".csv")
	}
	defer f.Close()

	return e.selectQuery(ctx, t.Rest(), f, output.Options{Format: output.CSV})
}

// createIndexQuery handles CREATE [UNIQUE] INDEX [name] ON table (field).
func (e *Engine) createIndexQuery(ctx *sql.Context, t *parse.Tokenizer, unique bool) error {
	indexName := ""
	if !t.HasPrefix("ON ") {
		name, _, err := t.GetQuotedToken(parse.MaxTableLength)
		if err != nil {
			return err
		}
		indexName = name
	}

	if err := expectToken(t, "ON"); err != nil {
		return err
	}

	tableName, _, err := t.GetQuotedToken(parse.MaxTableLength)
	if err != nil {
		return err
	}

	field, err := t.Parenthesised()
	if err != nil {
		return err
	}
	field = strings.TrimSpace(field)

	if indexName == "" {
		indexName = fmt.Sprintf("%s__%s", tableName, field)
	}

	return e.createIndex(ctx, indexName, tableName, field, unique)
}

// createIndex writes a sorted (value, rowid) CSV file. The UNIQUE variant
// fails, removing the file, when two adjacent values are equal.
func (e *Engine) createIndex(ctx *sql.Context, indexName, tableName, field string, unique bool) error {
	src, err := e.registry.Open(ctx, tableName)
	if err != nil {
		return err
	}
	defer src.Close()

	fieldIndex := src.FieldIndex(field)
	if fieldIndex < 0 {
		return sql.ErrColumnNotFound.New(field)
	}

	type entry struct {
		value string
		rowID int
	}
	entries := make([]entry, 0, src.RecordCount())
	for i := 0; i < src.RecordCount(); i++ {
		value, err := src.RecordValue(i, fieldIndex)
		if err != nil {
			return err
		}
		entries = append(entries, entry{value: value, rowID: i})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return sql.CompareValues(entries[i].value, entries[j].value) < 0
	})

	suffix := ".index.csv"
	if unique {
		suffix = ".unique.csv"
	}
	fileName := indexName + suffix

	f, err := os.Create(fileName)
	if err != nil {
		return sql.ErrTableNotFound.New(fileName)
	}

	if _, err := fmt.Fprintf(f, "%s,rowid\n", field); err != nil {
		f.Close()
		return err
	}

	for i, en := range entries {
		if unique && i > 0 && en.value == entries[i-1].value {
			f.Close()
			os.Remove(fileName)
			return sql.ErrUniqueViolation.New(en.value)
		}

		value := en.value
		if strings.ContainsRune(value, ',') {
			value = fmt.Sprintf("%q", value)
		}
		if _, err := fmt.Fprintf(f, "%s,%d\n", value, en.rowID); err != nil {
			f.Close()
			return err
		}
	}

	return f.Close()
}

func expectToken(t *parse.Tokenizer, keyword string) error {
	token, err := t.GetToken(parse.MaxFieldLength)
	if err != nil {
		return err
	}
	if token != keyword {
		return sql.ErrSyntax.New(keyword, token)
	}
	return nil
}
