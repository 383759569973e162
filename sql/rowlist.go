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

import "fmt"

// RowIDNull marks the unmatched right side of a LEFT JOIN. Reading a record
// through it yields the empty string.
const RowIDNull = -1

// RowList is a packed vector of row identifiers representing a partial join
// result. Row i's rowid for table j sits at ids[i*JoinCount+j]. A zero
// JoinCount list carries no ids at all and only counts rows (the dummy row
// for constant-only queries).
//
// Misusing a list — appending a tuple of the wrong width, indexing a table
// that has not been joined — is a programming error and panics.
type RowList struct {
	JoinCount int
	RowCount  int
	ids       []int
}

// maxInitialCapacity bounds pre-sizing; synthetic sources declare record
// counts in the millions and the backing slice grows on demand anyway.
const maxInitialCapacity = 1 << 16

// NewRowList returns a list expecting tuples of joinCount rowids, pre-sized
// for capacity rows.
func NewRowList(joinCount, capacity int) *RowList {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > maxInitialCapacity {
		capacity = maxInitialCapacity
	}
	return &RowList{
		JoinCount: joinCount,
		ids:       make([]int, 0, capacity*joinCount),
	}
}

// RowID returns row index's rowid for table joinID.
func (l *RowList) RowID(joinID, index int) int {
	if joinID < 0 || joinID >= l.JoinCount {
		panic(fmt.Sprintf("rowlist: join id %d out of range (join count %d)", joinID, l.JoinCount))
	}
	return l.ids[index*l.JoinCount+joinID]
}

// SetRowID overwrites row index's rowid for table joinID.
func (l *RowList) SetRowID(joinID, index, value int) {
	if joinID < 0 || joinID >= l.JoinCount {
		panic(fmt.Sprintf("rowlist: join id %d out of range (join count %d)", joinID, l.JoinCount))
	}
	l.ids[index*l.JoinCount+joinID] = value
}

// Append adds one row. The number of rowids must equal the join count.
func (l *RowList) Append(rowIDs ...int) {
	if len(rowIDs) != l.JoinCount {
		panic(fmt.Sprintf("rowlist: appended %d rowids to a list with join count %d", len(rowIDs), l.JoinCount))
	}
	l.ids = append(l.ids, rowIDs...)
	l.RowCount++
}

// AppendJoined appends src's row srcIndex extended by one more rowid. The
// destination's join count must be exactly one greater than the source's.
func (l *RowList) AppendJoined(src *RowList, srcIndex, rowID int) {
	if l.JoinCount != src.JoinCount+1 {
		panic(fmt.Sprintf("rowlist: cannot join %d-wide row into %d-wide list", src.JoinCount, l.JoinCount))
	}
	base := srcIndex * src.JoinCount
	l.ids = append(l.ids, src.ids[base:base+src.JoinCount]...)
	l.ids = append(l.ids, rowID)
	l.RowCount++
}

// CopyRowFrom appends src's row srcIndex, preserving its width. src may be
// the list itself; compaction in place relies on the destination row never
// being ahead of the source row.
func (l *RowList) CopyRowFrom(src *RowList, srcIndex int) {
	if l.JoinCount != src.JoinCount {
		panic(fmt.Sprintf("rowlist: cannot copy %d-wide row into %d-wide list", src.JoinCount, l.JoinCount))
	}
	jc := l.JoinCount
	if l == src {
		copy(l.ids[l.RowCount*jc:(l.RowCount+1)*jc], l.ids[srcIndex*jc:(srcIndex+1)*jc])
		l.RowCount++
		return
	}
	base := srcIndex * jc
	l.ids = append(l.ids, src.ids[base:base+jc]...)
	l.RowCount++
}

// Reset empties the list without releasing its storage, keeping the ids in
// place so CopyRowFrom can compact it.
func (l *RowList) Reset() {
	l.RowCount = 0
}

// TrimToRowCount drops storage beyond the logical row count. Needed after
// in-place compaction, where Reset left the old rows readable past the
// write position.
func (l *RowList) TrimToRowCount() {
	l.ids = l.ids[:l.RowCount*l.JoinCount]
}

// Truncate caps the list at n rows.
func (l *RowList) Truncate(n int) {
	if n >= 0 && n < l.RowCount {
		l.RowCount = n
		l.ids = l.ids[:n*l.JoinCount]
	}
}

// Swap exchanges two rows.
func (l *RowList) Swap(i, j int) {
	jc := l.JoinCount
	for k := 0; k < jc; k++ {
		l.ids[i*jc+k], l.ids[j*jc+k] = l.ids[j*jc+k], l.ids[i*jc+k]
	}
}

// Reverse reverses the rows in place. A non-negative limit bounds the
// reversal to the first limit rows.
func (l *RowList) Reverse(limit int) {
	n := l.RowCount
	if limit >= 0 && limit < n {
		n = limit
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		l.Swap(i, j)
	}
}

// ResultSet is the executor's stack of row lists. Each plan step pops some
// lists, computes, and pushes one.
type ResultSet struct {
	lists []*RowList
}

// NewResultSet returns an empty stack.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Push puts a list on top of the stack.
func (s *ResultSet) Push(l *RowList) {
	s.lists = append(s.lists, l)
}

// Pop removes and returns the top list, or nil when the stack is empty.
func (s *ResultSet) Pop() *RowList {
	if len(s.lists) == 0 {
		return nil
	}
	l := s.lists[len(s.lists)-1]
	s.lists = s.lists[:len(s.lists)-1]
	return l
}

// PopBottom removes and returns the bottom list, or nil when the stack is
// empty. The final projection drains groups in the order they were pushed.
func (s *ResultSet) PopBottom() *RowList {
	if len(s.lists) == 0 {
		return nil
	}
	l := s.lists[0]
	s.lists = s.lists[1:]
	return l
}

// Len returns the number of stacked lists.
func (s *ResultSet) Len() int {
	return len(s.lists)
}
