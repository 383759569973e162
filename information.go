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
	"io"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/vfs"
)

// informationQuery prints built-in metadata of a table: field and record
// counts, plus an index flag per field.
func (e *Engine) informationQuery(ctx *sql.Context, table string, w io.Writer) error {
	src, err := e.registry.Open(ctx, table)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Fprintf(w, "Table:\t%s\n", table)
	fmt.Fprintf(w, "Fields:\t%d\n", src.FieldCount())
	fmt.Fprintf(w, "Records:\t%d\n", src.RecordCount())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "field\tindex")
	fmt.Fprintln(w, "-----\t-----")

	for i := 0; i < src.FieldCount(); i++ {
		flag := 'N'
		if vfs.FindIndexKind(table, src.FieldName(i), sql.IndexNone) != sql.IndexNone {
			flag = 'Y'
		}
		fmt.Fprintf(w, "%s\t%c\n", src.FieldName(i), flag)
	}

	return nil
}
