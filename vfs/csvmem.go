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
	"io"
	"os"
	"strings"

	"github.com/flatbase/flatsql/sql"
)

// memoryCSV answers record queries from a single in-memory buffer indexed
// by line start offsets. Streams (stdin, subquery output) and small files
// both end up here.
type memoryCSV struct {
	name        string
	data        []byte
	fields      []string
	lineOffsets []int
}

// OpenMemoryCSV reads a whole file into memory.
func OpenMemoryCSV(name, path string) (sql.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sql.ErrTableNotFound.New(path)
	}
	return newMemoryCSV(name, data)
}

// OpenMemoryCSVReader consumes a stream into memory.
func OpenMemoryCSVReader(name string, r io.Reader) (sql.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return newMemoryCSV(name, data)
}

func newMemoryCSV(name string, data []byte) (*memoryCSV, error) {
	if len(data) == 0 {
		return nil, sql.ErrEmptySource.New(name)
	}

	m := &memoryCSV{name: name, data: data}
	m.lineOffsets = indexLines(data)
	m.fields = splitHeader(data[:lineLength(data, 0)])

	return m, nil
}

// indexLines returns the byte offset of every line start. A newline at the
// very end of the data does not start a further line.
func indexLines(data []byte) []int {
	offsets := []int{0}
	for i, c := range data {
		if c == '\n' && i+1 < len(data) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineLength returns the length of the line starting at offset, excluding
// the terminator.
func lineLength(data []byte, offset int) int {
	for i := offset; i < len(data); i++ {
		if data[i] == '\n' {
			n := i - offset
			if n > 0 && data[i-1] == '\r' {
				n--
			}
			return n
		}
	}
	return len(data) - offset
}

func splitHeader(line []byte) []string {
	parts := strings.Split(string(line), ",")
	for i := range parts {
		parts[i] = strings.TrimRight(parts[i], "\r")
	}
	return parts
}

// csvField extracts the string form of one field from a line. A value
// beginning with '"' runs to the next '"'; embedded quotes are undefined
// behaviour and are not escaped.
func csvField(data []byte, field int) (string, bool) {
	current := 0
	quoted := false
	start := -1

	for i := 0; i < len(data); i++ {
		c := data[i]

		if current == field {
			if start == -1 {
				if c == '"' {
					quoted = true
					start = i + 1
					continue
				}
				start = i
			}

			end := -1
			if quoted {
				if c == '"' {
					end = i
				}
			} else if c == ',' || c == '\n' || c == '\r' {
				end = i
			}
			if end >= 0 {
				return string(data[start:end]), true
			}
			continue
		}

		switch c {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				current++
			}
		case '\n':
			return "", false
		}
	}

	if current == field {
		if start == -1 {
			return "", true
		}
		return string(data[start:]), true
	}
	return "", false
}

func (m *memoryCSV) Name() string {
	return m.name
}

func (m *memoryCSV) Close() error {
	m.data = nil
	m.lineOffsets = nil
	return nil
}

func (m *memoryCSV) FieldIndex(name string) int {
	for i, f := range m.fields {
		if f == name {
			return i
		}
	}
	return sql.FieldUnknown
}

func (m *memoryCSV) FieldName(i int) string {
	if i < 0 || i >= len(m.fields) {
		return ""
	}
	return m.fields[i]
}

func (m *memoryCSV) FieldCount() int {
	return len(m.fields)
}

func (m *memoryCSV) RecordCount() int {
	return len(m.lineOffsets) - 1
}

func (m *memoryCSV) RecordValue(rowID, field int) (string, error) {
	if rowID < 0 || rowID >= m.RecordCount() {
		return "", fmt.Errorf("%s: record %d out of range", m.name, rowID)
	}
	if field < 0 || field >= len(m.fields) {
		return "", fmt.Errorf("%s: field %d out of range", m.name, field)
	}

	value, ok := csvField(m.data[m.lineOffsets[rowID+1]:], field)
	if !ok {
		return "", nil
	}
	return value, nil
}

func (m *memoryCSV) RenameFields(names []string) {
	for i := 0; i < len(names) && i < len(m.fields); i++ {
		if names[i] != "" {
			m.fields[i] = names[i]
		}
	}
}
