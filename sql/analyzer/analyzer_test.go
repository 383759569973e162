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

package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/parse"
	"github.com/flatbase/flatsql/vfs"
)

func setup(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	people := "id,name,score\n1,Alice,10\n2,Bob,20\n"
	scores := "score,label\n10,low\n20,high\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.csv"), []byte(people), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scores.csv"), []byte(scores), 0644))
}

func analyze(t *testing.T, query string) (*sql.Query, error) {
	t.Helper()

	q, err := parse.ParseQuery(query)
	require.NoError(t, err)

	a := New(&vfs.Registry{})
	err = a.Analyze(sql.NewEmptyContext(), q)
	if err == nil {
		t.Cleanup(func() { q.Close() })
	}
	return q, err
}

func TestResolveColumns(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT name, score FROM people")
	require.NoError(err)

	require.Equal(0, q.Columns[0].Fields[0].TableID)
	require.Equal(1, q.Columns[0].Fields[0].Index)
	require.Equal(2, q.Columns[1].Fields[0].Index)
}

func TestResolveQualifiedColumns(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT p.name, s.label FROM people p, scores s")
	require.NoError(err)

	require.Equal(0, q.Columns[0].Fields[0].TableID)
	require.Equal(1, q.Columns[0].Fields[0].Index)
	require.Equal(1, q.Columns[1].Fields[0].TableID)
	require.Equal(1, q.Columns[1].Fields[0].Index)
}

func TestResolveFirstTableWins(t *testing.T) {
	require := require.New(t)
	setup(t)

	// Both tables carry a score column; an unqualified reference binds to
	// the first.
	q, err := analyze(t, "SELECT score FROM people, scores")
	require.NoError(err)

	require.Equal(0, q.Columns[0].Fields[0].TableID)
	require.Equal(2, q.Columns[0].Fields[0].Index)
}

func TestResolveRowid(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT rowid, p.rowid FROM people p")
	require.NoError(err)

	require.Equal(sql.FieldRowIndex, q.Columns[0].Fields[0].Index)
	require.Equal(0, q.Columns[0].Fields[0].TableID)
	require.Equal(sql.FieldRowIndex, q.Columns[1].Fields[0].Index)
}

func TestResolveStar(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT p.* FROM people p")
	require.NoError(err)
	require.Equal(sql.FieldStar, q.Columns[0].Fields[0].Index)
	require.Equal(0, q.Columns[0].Fields[0].TableID)
}

func TestResolveUnknownColumn(t *testing.T) {
	setup(t)

	_, err := analyze(t, "SELECT bogus FROM people")
	require.True(t, sql.ErrColumnNotFound.Is(err))

	_, err = analyze(t, "SELECT nope.name FROM people")
	require.True(t, sql.ErrColumnNotFound.Is(err))
}

func TestResolveUnknownTable(t *testing.T) {
	setup(t)

	_, err := analyze(t, "SELECT name FROM missing")
	require.True(t, sql.ErrTableNotFound.Is(err))
}

func TestResolveJoinPredicate(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "FROM people p JOIN scores s ON p.score = s.score")
	require.NoError(err)

	join := &q.Tables[1].Join
	require.Equal(0, join.Left.Fields[0].TableID)
	require.Equal(2, join.Left.Fields[0].Index)
	require.Equal(1, join.Right.Fields[0].TableID)
	require.Equal(0, join.Right.Fields[0].Index)
}

func TestResolveSelfJoinSharesSource(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT a.name FROM people a, people b")
	require.NoError(err)
	require.True(q.Tables[0].Source == q.Tables[1].Source)
}

func TestResolveConstantOnlyNeedsNoTables(t *testing.T) {
	setup(t)

	_, err := analyze(t, "SELECT 42, 'x'")
	require.NoError(t, err)

	_, err = analyze(t, "SELECT name")
	require.True(t, sql.ErrNoTables.Is(err))
}

func TestResolveIsIdempotent(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT name FROM people")
	require.NoError(err)

	col := q.Columns[0]
	require.NoError(ResolveNode(q, &q.Columns[0]))
	require.Equal(col, q.Columns[0])
}

func TestResolveColumnAliases(t *testing.T) {
	require := require.New(t)
	setup(t)

	q, err := analyze(t, "SELECT a FROM people AS p (a, b)")
	require.NoError(err)
	require.Equal(0, q.Columns[0].Fields[0].Index)
	require.Equal(2, q.Tables[0].Source.FieldIndex("score"))
}
