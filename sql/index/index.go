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

// Package index implements the index access primitives. An index is any
// source sorted ascending on one column, with the matching table rowid in
// another column — or, for primary keys, implicitly equal to the entry's
// own position.
package index

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/sql"
)

// SearchStatus tells a caller where a binary search landed.
type SearchStatus int

const (
	// Found: the value is present and the position is its first
	// occurrence.
	Found SearchStatus = iota
	// Between: absent; the position is where it would be inserted.
	Between
	// BelowMin: absent and smaller than every entry.
	BelowMin
	// AboveMax: absent and greater than every entry.
	AboveMax
)

// Search binary searches the sorted column for value and returns the
// lower bound: the position of the first entry >= value. The status
// distinguishes found / would-insert-here / out-of-range.
func Search(src sql.Source, column int, value string) (int, SearchStatus, error) {
	pos, err := lowerBound(src, column, value)
	if err != nil {
		return 0, Between, err
	}

	n := src.RecordCount()
	switch {
	case pos >= n:
		return pos, AboveMax, nil
	case pos == 0:
		entry, err := src.RecordValue(0, column)
		if err != nil {
			return 0, Between, err
		}
		if entry == value {
			return 0, Found, nil
		}
		return 0, BelowMin, nil
	}

	entry, err := src.RecordValue(pos, column)
	if err != nil {
		return 0, Between, err
	}
	if entry == value {
		return pos, Found, nil
	}
	return pos, Between, nil
}

// lowerBound returns the first position whose entry is >= value.
func lowerBound(src sql.Source, column int, value string) (int, error) {
	lo, hi := 0, src.RecordCount()
	for lo < hi {
		mid := (lo + hi) / 2
		entry, err := src.RecordValue(mid, column)
		if err != nil {
			return 0, err
		}
		if sql.CompareValues(entry, value) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// upperBound returns the first position whose entry is > value.
func upperBound(src sql.Source, column int, value string) (int, error) {
	lo, hi := 0, src.RecordCount()
	for lo < hi {
		mid := (lo + hi) / 2
		entry, err := src.RecordValue(mid, column)
		if err != nil {
			return 0, err
		}
		if sql.CompareValues(entry, value) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// Walk appends rowids for index positions [lo, hi), in index order.
// rowidColumn == sql.FieldRowIndex appends the position itself (primary
// keys); otherwise the rowid is read from that column.
func Walk(src sql.Source, rowidColumn, lo, hi int, list *sql.RowList, limit int) error {
	for i := lo; i < hi; i++ {
		if limit >= 0 && list.RowCount >= limit {
			break
		}
		if rowidColumn == sql.FieldRowIndex {
			list.Append(i)
			continue
		}
		value, err := src.RecordValue(i, rowidColumn)
		if err != nil {
			return err
		}
		list.Append(cast.ToInt(value))
	}
	return nil
}

// seekRanges turns an operator and value into index position ranges.
func seekRanges(src sql.Source, column int, op sql.Operator, value string) ([][2]int, error) {
	n := src.RecordCount()

	if op == sql.OpAlways {
		return [][2]int{{0, n}}, nil
	}

	if op == sql.OpLike {
		prefix := value
		if strings.HasSuffix(prefix, "%") {
			prefix = prefix[:len(prefix)-1]
		} else {
			// An exact LIKE degenerates to equality.
			op = sql.OpEq
		}
		if op == sql.OpLike {
			if prefix == "" {
				return [][2]int{{0, n}}, nil
			}
			lo, _, err := Search(src, column, prefix)
			if err != nil {
				return nil, err
			}
			hi, err := lowerBound(src, column, nextPrefix(prefix))
			if err != nil {
				return nil, err
			}
			return [][2]int{{lo, hi}}, nil
		}
	}

	lo, status, err := Search(src, column, value)
	if err != nil {
		return nil, err
	}
	hi, err := upperBound(src, column, value)
	if err != nil {
		return nil, err
	}

	switch op {
	case sql.OpEq:
		if status != Found {
			return nil, nil
		}
		return [][2]int{{lo, hi}}, nil
	case sql.OpLt:
		return [][2]int{{0, lo}}, nil
	case sql.OpLe:
		return [][2]int{{0, hi}}, nil
	case sql.OpGt:
		return [][2]int{{hi, n}}, nil
	case sql.OpGe:
		return [][2]int{{lo, n}}, nil
	case sql.OpNe:
		return [][2]int{{0, lo}, {hi, n}}, nil
	}

	return nil, sql.ErrUnsupportedFeature.New("index range scan for operator " + op.String())
}

// PrimarySeek runs an index-ordered lookup on a source whose pkColumn is
// sorted and whose rowid is the entry's own position.
func PrimarySeek(src sql.Source, pkColumn int, op sql.Operator, value string, list *sql.RowList, limit int) error {
	return seek(src, pkColumn, sql.FieldRowIndex, op, value, list, limit)
}

// UniqueSeek runs an index-ordered lookup over a unique index file,
// reading rowids out of rowidColumn.
func UniqueSeek(src sql.Source, rowidColumn int, op sql.Operator, value string, list *sql.RowList, limit int) error {
	if op == sql.OpLike {
		return sql.ErrUnsupportedFeature.New("LIKE over a unique index")
	}
	return seek(src, indexValueColumn(rowidColumn), rowidColumn, op, value, list, limit)
}

// Seek runs an index-ordered lookup over a non-unique index file. LIKE is
// supported for trailing-% patterns.
func Seek(src sql.Source, rowidColumn int, op sql.Operator, value string, list *sql.RowList, limit int) error {
	return seek(src, indexValueColumn(rowidColumn), rowidColumn, op, value, list, limit)
}

// indexValueColumn locates the indexed-value column of a two-column index
// file: whichever column is not the rowid.
func indexValueColumn(rowidColumn int) int {
	if rowidColumn == 0 {
		return 1
	}
	return 0
}

func seek(src sql.Source, valueColumn, rowidColumn int, op sql.Operator, value string, list *sql.RowList, limit int) error {
	ranges, err := seekRanges(src, valueColumn, op, value)
	if err != nil {
		return err
	}
	for _, r := range ranges {
		if err := Walk(src, rowidColumn, r[0], r[1], list, limit); err != nil {
			return err
		}
	}
	return nil
}

// Scan walks the entire index in stored order.
func Scan(src sql.Source, rowidColumn int, list *sql.RowList, limit int) error {
	return Walk(src, rowidColumn, 0, src.RecordCount(), list, limit)
}

// Lookup point-searches a unique or primary index and returns the rowid of
// the match. ok is false when the value is absent.
func Lookup(src sql.Source, rowidColumn int, value string) (int, bool, error) {
	valueColumn := 0
	if rowidColumn >= 0 {
		valueColumn = indexValueColumn(rowidColumn)
	}

	pos, status, err := Search(src, valueColumn, value)
	if err != nil || status != Found {
		return 0, false, err
	}

	if rowidColumn == sql.FieldRowIndex {
		return pos, true, nil
	}
	entry, err := src.RecordValue(pos, rowidColumn)
	if err != nil {
		return 0, false, err
	}
	return cast.ToInt(entry), true, nil
}

// nextPrefix increments a prefix's final byte, producing the exclusive
// upper bound for a LIKE prefix range.
func nextPrefix(prefix string) string {
	b := []byte(prefix)
	b[len(b)-1]++
	return string(b)
}
