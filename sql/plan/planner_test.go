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

package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/analyzer"
	"github.com/flatbase/flatsql/sql/parse"
	"github.com/flatbase/flatsql/vfs"
)

const peopleCSV = "id,name,score\n1,Alice,10\n2,Bob,20\n3,Cara,20\n4,Dan,5\n"

// buildFor parses, resolves and plans a query against files in dir.
func buildFor(t *testing.T, query string) *Plan {
	t.Helper()

	q, err := parse.ParseQuery(query)
	require.NoError(t, err)

	a := analyzer.New(&vfs.Registry{})
	require.NoError(t, a.Analyze(sql.NewEmptyContext(), q))
	t.Cleanup(func() { q.Close() })

	return Build(q)
}

func stepTypes(p *Plan) []StepType {
	types := make([]StepType, len(p.Steps))
	for i := range p.Steps {
		types[i] = p.Steps[i].Type
	}
	return types
}

func setupPeople(t *testing.T, indexes bool) {
	t.Helper()
	dir := t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.csv"), []byte(peopleCSV), 0644))

	if indexes {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "people__score.index.csv"),
			[]byte("score,rowid\n5,3\n10,0\n20,1\n20,2\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "people__id.unique.csv"),
			[]byte("id,rowid\n1,0\n2,1\n3,2\n4,3\n"), 0644))
	}
}

func TestBuildConstantOnlyQuery(t *testing.T) {
	q, err := parse.ParseQuery("SELECT 42")
	require.NoError(t, err)

	p := Build(q)
	require.Equal(t, []StepType{StepDummyRow, StepSelect}, stepTypes(p))
}

func TestBuildPlainScan(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people")
	require.Equal(t, []StepType{StepTableScan, StepSelect}, stepTypes(p))
}

func TestBuildScanWithPredicates(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people WHERE score >= 20")
	require.Equal(t, []StepType{StepTableScan, StepSelect}, stepTypes(p))
	require.Len(t, p.Steps[0].Predicates, 1)
}

func TestBuildUniqueIndexLookup(t *testing.T) {
	setupPeople(t, true)

	p := buildFor(t, "SELECT name FROM people WHERE id = 3")
	require.Equal(t, []StepType{StepUnique, StepSelect}, stepTypes(p))

	p = buildFor(t, "SELECT name FROM people WHERE id >= 3")
	require.Equal(t, []StepType{StepUniqueRange, StepSelect}, stepTypes(p))
}

func TestBuildIndexRange(t *testing.T) {
	setupPeople(t, true)

	p := buildFor(t, "SELECT name FROM people WHERE score > 5")
	require.Equal(t, []StepType{StepIndexRange, StepSelect}, stepTypes(p))
}

func TestBuildPKHint(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people WHERE PK(id) = 3")
	require.Equal(t, []StepType{StepPK, StepSelect}, stepTypes(p))

	p = buildFor(t, "SELECT name FROM people WHERE PK(id) < 3")
	require.Equal(t, []StepType{StepPKRange, StepSelect}, stepTypes(p))
}

func TestBuildNormalisesReversedPredicate(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people WHERE 20 <= score")
	require.Equal(t, []StepType{StepTableScan, StepSelect}, stepTypes(p))

	// The planner flipped the predicate so the field leads.
	pred := &p.Steps[0].Predicates[0]
	require.Equal(t, "score", pred.Left.Fields[0].Text)
	require.Equal(t, sql.OpGe, pred.Op)
}

func TestBuildOrderAddsSort(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people ORDER BY name")
	require.Equal(t, []StepType{StepTableScan, StepSort, StepSelect}, stepTypes(p))
}

func TestBuildOrderByRowidNeedsNoSort(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people ORDER BY rowid")
	require.Equal(t, []StepType{StepTableScan, StepSelect}, stepTypes(p))

	p = buildFor(t, "SELECT name FROM people ORDER BY rowid DESC")
	require.Equal(t, []StepType{StepTableScan, StepReverse, StepSelect}, stepTypes(p))
}

func TestBuildOrderPinnedByEqualityNeedsNoSort(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people WHERE score = 20 ORDER BY score")
	require.Equal(t, []StepType{StepTableScan, StepSelect}, stepTypes(p))
}

func TestBuildOrderOnIndexedColumnWalksIndex(t *testing.T) {
	setupPeople(t, true)

	// No predicates: the index walk replaces the sort entirely.
	p := buildFor(t, "SELECT name FROM people ORDER BY score")
	require.Equal(t, []StepType{StepIndexScan, StepSelect}, stepTypes(p))

	p = buildFor(t, "SELECT name FROM people ORDER BY score DESC")
	require.Equal(t, []StepType{StepIndexScan, StepReverse, StepSelect}, stepTypes(p))
}

func TestBuildIndexRangeSatisfiesOrder(t *testing.T) {
	setupPeople(t, true)

	// The range walk already produces score order.
	p := buildFor(t, "SELECT name FROM people WHERE score > 5 ORDER BY score")
	require.Equal(t, []StepType{StepIndexRange, StepSelect}, stepTypes(p))

	p = buildFor(t, "SELECT name FROM people WHERE score > 5 ORDER BY score DESC")
	require.Equal(t, []StepType{StepIndexRange, StepReverse, StepSelect}, stepTypes(p))
}

func TestBuildLimitPushdown(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people LIMIT 2 OFFSET 1")
	require.Equal(t, []StepType{StepTableScan, StepSelect}, stepTypes(p))
	// Offset rows ride along until SELECT skips them.
	require.Equal(t, 3, p.Steps[0].Limit)
}

func TestBuildLimitAfterSortNeedsSlice(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT name FROM people ORDER BY name LIMIT 2")
	require.Equal(t, []StepType{StepTableScan, StepSort, StepSlice, StepSelect}, stepTypes(p))
	require.Equal(t, 2, p.Steps[2].Limit)
}

func TestBuildGroupAddsSortAndGroup(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT score, COUNT(*) FROM people GROUP BY score")
	require.Equal(t, []StepType{StepTableScan, StepSort, StepGroup, StepSelect}, stepTypes(p))
}

func TestBuildGroupOnIndexedColumnSkipsSort(t *testing.T) {
	setupPeople(t, true)

	p := buildFor(t, "SELECT score, COUNT(*) FROM people GROUP BY score")
	require.Equal(t, []StepType{StepIndexScan, StepGroup, StepSelect}, stepTypes(p))
}

func TestBuildCrossJoin(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT * FROM people, people")
	require.Equal(t, []StepType{StepTableScan, StepCrossJoin, StepSelect}, stepTypes(p))
}

func TestBuildLoopJoin(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT * FROM people a JOIN people b ON a.id = b.score")
	require.Equal(t, []StepType{StepTableScan, StepLoopJoin, StepSelect}, stepTypes(p))
}

func TestBuildUniqueJoin(t *testing.T) {
	setupPeople(t, true)

	p := buildFor(t, "SELECT * FROM people a JOIN people b ON a.score = b.id")
	require.Equal(t, []StepType{StepTableScan, StepUniqueJoin, StepSelect}, stepTypes(p))
}

func TestBuildIndexJoin(t *testing.T) {
	setupPeople(t, true)

	p := buildFor(t, "SELECT * FROM people a JOIN people b ON a.id = b.score")
	require.Equal(t, []StepType{StepTableScan, StepIndexJoin, StepSelect}, stepTypes(p))
}

func TestBuildCrossTablePredicateFiltersAfterJoin(t *testing.T) {
	setupPeople(t, false)

	p := buildFor(t, "SELECT * FROM people a, people b WHERE a.score = b.score")
	require.Equal(t,
		[]StepType{StepTableScan, StepCrossJoin, StepTableAccessRowid, StepSelect},
		stepTypes(p))
}
