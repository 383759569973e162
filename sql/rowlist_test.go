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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowListAppend(t *testing.T) {
	require := require.New(t)

	list := NewRowList(1, 4)
	list.Append(3)
	list.Append(1)
	list.Append(2)

	require.Equal(3, list.RowCount)
	require.Equal(3, list.RowID(0, 0))
	require.Equal(1, list.RowID(0, 1))
	require.Equal(2, list.RowID(0, 2))
}

func TestRowListAppendWrongWidthPanics(t *testing.T) {
	list := NewRowList(2, 4)
	require.Panics(t, func() {
		list.Append(1)
	})
}

func TestRowListRowIDOutOfJoinRangePanics(t *testing.T) {
	list := NewRowList(1, 1)
	list.Append(0)
	require.Panics(t, func() {
		list.RowID(1, 0)
	})
}

func TestRowListAppendJoined(t *testing.T) {
	require := require.New(t)

	left := NewRowList(1, 2)
	left.Append(10)
	left.Append(20)

	joined := NewRowList(2, 4)
	joined.AppendJoined(left, 0, 7)
	joined.AppendJoined(left, 1, 8)
	joined.AppendJoined(left, 1, RowIDNull)

	require.Equal(3, joined.RowCount)
	require.Equal(10, joined.RowID(0, 0))
	require.Equal(7, joined.RowID(1, 0))
	require.Equal(20, joined.RowID(0, 1))
	require.Equal(8, joined.RowID(1, 1))
	require.Equal(RowIDNull, joined.RowID(1, 2))
}

func TestRowListCopyRowInPlace(t *testing.T) {
	require := require.New(t)

	list := NewRowList(2, 3)
	list.Append(1, 11)
	list.Append(2, 22)
	list.Append(3, 33)

	// Compact rows 1 and 2 down, as the rowid filter step does.
	list.Reset()
	list.CopyRowFrom(list, 1)
	list.CopyRowFrom(list, 2)
	list.TrimToRowCount()

	require.Equal(2, list.RowCount)
	require.Equal(2, list.RowID(0, 0))
	require.Equal(22, list.RowID(1, 0))
	require.Equal(3, list.RowID(0, 1))
	require.Equal(33, list.RowID(1, 1))
}

func TestRowListReverse(t *testing.T) {
	require := require.New(t)

	list := NewRowList(1, 4)
	for _, id := range []int{1, 2, 3, 4} {
		list.Append(id)
	}

	list.Reverse(-1)
	require.Equal([]int{4, 3, 2, 1}, allRowIDs(list))

	// A bounded reverse only flips the head of the list.
	list.Reverse(2)
	require.Equal([]int{3, 4, 2, 1}, allRowIDs(list))
}

func TestRowListTruncate(t *testing.T) {
	require := require.New(t)

	list := NewRowList(1, 4)
	for _, id := range []int{1, 2, 3, 4} {
		list.Append(id)
	}

	list.Truncate(2)
	require.Equal(2, list.RowCount)

	// Truncating beyond the row count is a no-op.
	list.Truncate(10)
	require.Equal(2, list.RowCount)
}

func allRowIDs(list *RowList) []int {
	ids := make([]int, 0, list.RowCount)
	for i := 0; i < list.RowCount; i++ {
		ids = append(ids, list.RowID(0, i))
	}
	return ids
}

func TestResultSetStack(t *testing.T) {
	require := require.New(t)

	set := NewResultSet()
	require.Nil(set.Pop())

	a := NewRowList(1, 0)
	b := NewRowList(1, 0)
	c := NewRowList(1, 0)

	set.Push(a)
	set.Push(b)
	set.Push(c)
	require.Equal(3, set.Len())

	require.True(set.Pop() == c)
	require.True(set.PopBottom() == a)
	require.True(set.Pop() == b)
	require.Nil(set.Pop())
}
