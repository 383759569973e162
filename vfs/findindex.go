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
	"fmt"
	"strings"

	"github.com/flatbase/flatsql/sql"
)

// Index files are CSV files beside the table: two columns, the indexed
// value sorted ascending and the source rowid. They are named
// table__field.unique.csv / table__field.index.csv, or explicitly via
// UNIQUE(name) / INDEX(name) column spellings.

func uniqueIndexFile(table, column string) string {
	if strings.HasPrefix(column, "UNIQUE(") && strings.HasSuffix(column, ")") {
		return column[len("UNIQUE("):len(column)-1] + ".unique.csv"
	}
	return fmt.Sprintf("%s__%s.unique.csv", table, column)
}

func regularIndexFile(table, column string) string {
	if strings.HasPrefix(column, "INDEX(") && strings.HasSuffix(column, ")") {
		return column[len("INDEX("):len(column)-1] + ".index.csv"
	}
	return fmt.Sprintf("%s__%s.index.csv", table, column)
}

// BareColumn strips a table qualifier from a column reference; index files
// are named by bare column.
func BareColumn(name string) string {
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		return name[dot+1:]
	}
	return name
}

func isSyntheticTable(table string) bool {
	return table == "CALENDAR" || table == "SAMPLE" ||
		strings.HasPrefix(table, "SEQUENCE(") || strings.HasPrefix(table, "DIR(")
}

// FindIndexKind reports which kind of index exists for a column without
// opening it. want == IndexNone accepts any kind; want == IndexUnique only
// reports unique indexes.
func FindIndexKind(table, column string, want sql.IndexKind) sql.IndexKind {
	if isSyntheticTable(table) {
		return sql.IndexNone
	}

	if fileExists(uniqueIndexFile(table, column)) {
		return sql.IndexUnique
	}
	if want == sql.IndexUnique {
		return sql.IndexNone
	}

	if fileExists(regularIndexFile(table, column)) {
		return sql.IndexRegular
	}
	return sql.IndexNone
}

// OpenIndex opens the index for a column as a source, preferring the
// unique variant.
func OpenIndex(table, column string, want sql.IndexKind) (sql.Source, sql.IndexKind, error) {
	kind := FindIndexKind(table, column, want)

	switch kind {
	case sql.IndexUnique:
		src, err := OpenCSV(table+"__"+column, uniqueIndexFile(table, column))
		return src, kind, err
	case sql.IndexRegular:
		src, err := OpenCSV(table+"__"+column, regularIndexFile(table, column))
		return src, kind, err
	}

	return nil, sql.IndexNone, sql.ErrIndexNotFound.New(want, column, table)
}
