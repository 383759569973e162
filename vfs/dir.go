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
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/flatbase/flatsql/internal/dates"
	"github.com/flatbase/flatsql/sql"
)

// dirMaxEntries caps how much of a directory is read at open time.
const dirMaxEntries = 1000

var dirFields = []string{"inode", "name", "type", "path", "size", "created", "modified"}

// dirSource lists a directory read once at open time. Size and date
// columns stat lazily, per access.
type dirSource struct {
	name    string
	path    string
	entries []os.DirEntry
}

// OpenDir parses DIR(path) and reads the directory.
func OpenDir(name string) (sql.Source, error) {
	path := strings.TrimPrefix(name, "DIR(")
	path = strings.TrimSuffix(path, ")")

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, sql.ErrTableNotFound.New(name)
	}
	if len(entries) > dirMaxEntries {
		entries = entries[:dirMaxEntries]
	}

	return &dirSource{name: name, path: path, entries: entries}, nil
}

func (d *dirSource) Name() string {
	return d.name
}

func (d *dirSource) Close() error {
	d.entries = nil
	return nil
}

func (d *dirSource) FieldIndex(name string) int {
	for i, f := range dirFields {
		if f == name {
			return i
		}
	}
	return sql.FieldUnknown
}

func (d *dirSource) FieldName(i int) string {
	if i < 0 || i >= len(dirFields) {
		return ""
	}
	return dirFields[i]
}

func (d *dirSource) FieldCount() int {
	return len(dirFields)
}

func (d *dirSource) RecordCount() int {
	return len(d.entries)
}

func (d *dirSource) RecordValue(rowID, field int) (string, error) {
	if rowID < 0 || rowID >= len(d.entries) {
		return "", fmt.Errorf("%s: record %d out of range", d.name, rowID)
	}

	entry := d.entries[rowID]
	full := filepath.Join(d.path, entry.Name())

	switch field {
	case 1: // name
		return entry.Name(), nil
	case 2: // type
		switch {
		case entry.IsDir():
			return "d", nil
		case entry.Type()&os.ModeSymlink != 0:
			return "l", nil
		case entry.Type().IsRegular():
			return "f", nil
		}
		return "?", nil
	case 3: // path
		return full, nil
	}

	info, err := os.Stat(full)
	if err != nil {
		return "", nil
	}

	switch field {
	case 0: // inode
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			return fmt.Sprintf("%d", st.Ino), nil
		}
		return "", nil

	case 4: // size (regular files only)
		if !info.Mode().IsRegular() {
			return "", nil
		}
		return fmt.Sprintf("%d", info.Size()), nil

	case 5: // created
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			return dates.FromJulian(dates.FromUnix(st.Ctim.Sec)).FormatDate(), nil
		}
		return "", nil

	case 6: // modified
		return dates.FromJulian(dates.FromUnix(info.ModTime().Unix())).FormatDate(), nil
	}

	return "", fmt.Errorf("%s: field %d out of range", d.name, field)
}
