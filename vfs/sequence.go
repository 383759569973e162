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

	"github.com/spf13/cast"

	"github.com/flatbase/flatsql/sql"
)

// sequence is the SEQUENCE(n) generator: a single column of the integers
// 0..n-1, rowid == value.
type sequence struct {
	name  string
	count int
}

// OpenSequence parses SEQUENCE(n).
func OpenSequence(name string) (sql.Source, error) {
	inner := strings.TrimPrefix(name, "SEQUENCE(")
	inner = strings.TrimSuffix(inner, ")")

	n, err := cast.ToIntE(strings.TrimSpace(inner))
	if err != nil || n < 0 {
		return nil, sql.ErrTableNotFound.New(name)
	}
	return &sequence{name: name, count: n}, nil
}

func (s *sequence) Name() string {
	return s.name
}

func (s *sequence) Close() error {
	return nil
}

func (s *sequence) FieldIndex(name string) int {
	if name == "value" {
		return 0
	}
	if name == "rowid" {
		return sql.FieldRowIndex
	}
	return sql.FieldUnknown
}

func (s *sequence) FieldName(i int) string {
	if i == 0 {
		return "value"
	}
	return ""
}

func (s *sequence) FieldCount() int {
	return 1
}

func (s *sequence) RecordCount() int {
	return s.count
}

func (s *sequence) RecordValue(rowID, field int) (string, error) {
	if rowID < 0 || rowID >= s.count {
		return "", fmt.Errorf("%s: record %d out of range", s.name, rowID)
	}
	if field != 0 && field != sql.FieldRowIndex {
		return "", fmt.Errorf("%s: field %d out of range", s.name, field)
	}
	return fmt.Sprintf("%d", rowID), nil
}
