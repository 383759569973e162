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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/flatbase/flatsql/sql"
)

// MemoryFileLimit is the size below which a seekable file is slurped into
// memory instead of being indexed and read lazily.
const MemoryFileLimit = 1 << 20

// fileCSV reads records lazily from disk, seeking via an index of line
// start offsets built once at open time. Callers cannot observe whether
// they got this driver or the in-memory one.
type fileCSV struct {
	name        string
	file        *os.File
	fields      []string
	lineOffsets []int64
}

// OpenCSV opens a delimited file. Small files fall back to the in-memory
// driver; only large seekable files pay for lazy reads.
func OpenCSV(name, path string) (sql.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sql.ErrTableNotFound.New(path)
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() || info.Size() < MemoryFileLimit {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return newMemoryCSV(name, data)
	}

	c := &fileCSV{name: name, file: f}
	if err := c.index(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// index scans the file once, recording every line start and parsing the
// header line.
func (c *fileCSV) index() error {
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	r := bufio.NewReader(c.file)
	var pos int64
	c.lineOffsets = append(c.lineOffsets, 0)

	header, err := r.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if len(header) == 0 {
		return sql.ErrEmptySource.New(c.name)
	}
	c.fields = splitHeader(header[:lineLength(header, 0)])
	pos += int64(len(header))
	if pos < fileSize(c.file) {
		c.lineOffsets = append(c.lineOffsets, pos)
	}

	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			pos += int64(len(line))
			if line[len(line)-1] == '\n' && pos < fileSize(c.file) {
				c.lineOffsets = append(c.lineOffsets, pos)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func fileSize(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (c *fileCSV) Name() string {
	return c.name
}

func (c *fileCSV) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *fileCSV) FieldIndex(name string) int {
	for i, f := range c.fields {
		if f == name {
			return i
		}
	}
	return sql.FieldUnknown
}

func (c *fileCSV) FieldName(i int) string {
	if i < 0 || i >= len(c.fields) {
		return ""
	}
	return c.fields[i]
}

func (c *fileCSV) FieldCount() int {
	return len(c.fields)
}

func (c *fileCSV) RecordCount() int {
	// Offset 0 is the header line; data rows are 0-indexed from offset 1.
	return len(c.lineOffsets) - 1
}

func (c *fileCSV) RecordValue(rowID, field int) (string, error) {
	if rowID < 0 || rowID >= c.RecordCount() {
		return "", fmt.Errorf("%s: record %d out of range", c.name, rowID)
	}
	if field < 0 || field >= len(c.fields) {
		return "", fmt.Errorf("%s: field %d out of range", c.name, field)
	}

	if _, err := c.file.Seek(c.lineOffsets[rowID+1], io.SeekStart); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(c.file).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	value, ok := csvField(line, field)
	if !ok {
		return "", nil
	}
	return value, nil
}

func (c *fileCSV) RenameFields(names []string) {
	for i := 0; i < len(names) && i < len(c.fields); i++ {
		if names[i] != "" {
			c.fields[i] = names[i]
		}
	}
}
