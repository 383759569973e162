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

package sql

// Source is a table source: anything that can answer field lookups and read
// record values by (rowid, field) position. Drivers return the empty string
// for NULL values; a non-nil error means the read itself failed.
//
// Rowids are 0-based data row positions. The header of a delimited file is
// not a row.
type Source interface {
	// Name returns the name the source was opened with.
	Name() string

	// Close releases the source's resources.
	Close() error

	// FieldIndex returns the position of the named column, FieldRowIndex
	// for a column backed by the rowid itself, or FieldUnknown.
	FieldIndex(name string) int

	// FieldName returns the name of the column at position i.
	FieldName(i int) string

	// FieldCount returns the number of columns.
	FieldCount() int

	// RecordCount returns the number of data rows. Synthetic sources may
	// declare a large bound; callers must bound iteration with predicates
	// or limits.
	RecordCount() int

	// RecordValue returns the string form of the value at (rowID, field).
	RecordValue(rowID, field int) (string, error)
}

// TableScanner is implemented by sources that can apply predicates during a
// full scan more efficiently than row-at-a-time evaluation. CALENDAR
// narrows its Julian range from the predicates before iterating.
type TableScanner interface {
	ScanTable(ctx *Context, list *RowList, predicates []Predicate, limit int) error
}

// IndexKind classifies an index found for a column.
type IndexKind int

const (
	IndexNone    IndexKind = 0
	IndexRegular IndexKind = 1
	IndexUnique  IndexKind = 2
	IndexPrimary IndexKind = 3
)

func (k IndexKind) String() string {
	switch k {
	case IndexRegular:
		return "regular"
	case IndexUnique:
		return "unique"
	case IndexPrimary:
		return "primary"
	}
	return "none"
}
