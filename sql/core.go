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

// Reserved field indexes. Non-negative values are real column positions on
// the owning source; these sentinels select pseudo-columns instead.
const (
	FieldUnknown   = -1
	FieldStar      = -2
	FieldCountStar = -3
	FieldRowNumber = -4
	FieldRowIndex  = -5
	FieldConstant  = -6
)

// Operator is a comparison operator. The numeric values form a bitmap:
// bit 0 = EQ, bit 1 = LT, bit 2 = GT, so e.g. LE == LT|EQ and Always has
// all bits set. Range narrowing relies on this composition.
type Operator int

const (
	OpNever  Operator = 0
	OpEq     Operator = 1
	OpLt     Operator = 2
	OpLe     Operator = 3
	OpGt     Operator = 4
	OpGe     Operator = 5
	OpNe     Operator = 6
	OpAlways Operator = 7
	OpLike   Operator = 128
)

// ParseOperator maps an operator token to its Operator, or OpNever if the
// token is not an operator. IS maps to equality; the parser rewrites
// IS NOT to OpNe itself.
func ParseOperator(s string) Operator {
	switch s {
	case "=", "IS":
		return OpEq
	case "!=":
		return OpNe
	case "<":
		return OpLt
	case "<=":
		return OpLe
	case ">":
		return OpGt
	case ">=":
		return OpGe
	case "LIKE":
		return OpLike
	}
	return OpNever
}

func (op Operator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLike:
		return "LIKE"
	case OpAlways:
		return "ALWAYS"
	case OpNever:
		return "NEVER"
	}
	return "??"
}

// Order is a sort direction.
type Order int

const (
	Asc Order = iota
	Desc
)

// Function identifies the scalar or aggregate function applied to a column
// node. The top three bits select the family; the low five bits select the
// function within it.
type Function int

const (
	FuncFamilyMask Function = 0xE0

	// Basic family (0x00).
	FuncUnity  Function = 0x00
	FuncChr    Function = 0x01
	FuncToHex  Function = 0x02
	FuncPK     Function = 0x04
	FuncRandom Function = 0x10

	// String family (0x20).
	FuncFamString Function = 0x20
	FuncLength    Function = 0x21
	FuncLeft      Function = 0x22
	FuncRight     Function = 0x23

	// Extract family (0x40).
	FuncFamExtract         Function = 0x40
	FuncExtractYear        Function = 0x41
	FuncExtractMonth       Function = 0x42
	FuncExtractDay         Function = 0x43
	FuncExtractWeek        Function = 0x44
	FuncExtractWeekday     Function = 0x45
	FuncExtractWeekyear    Function = 0x46
	FuncExtractYearday     Function = 0x47
	FuncExtractHeyear      Function = 0x48
	FuncExtractMillennium  Function = 0x49
	FuncExtractCentury     Function = 0x4A
	FuncExtractDecade      Function = 0x4B
	FuncExtractQuarter     Function = 0x4C
	FuncExtractMonthString Function = 0x51
	FuncExtractWeekString  Function = 0x52
	FuncExtractYeardayStr  Function = 0x53
	FuncExtractJulian      Function = 0x5C
	FuncExtractDate        Function = 0x5D
	FuncExtractTime        Function = 0x5E
	FuncExtractDatetime    Function = 0x5F

	// Aggregate family (0xA0).
	FuncFamAgg     Function = 0xA0
	FuncAggCount   Function = 0xA1
	FuncAggMax     Function = 0xA2
	FuncAggMin     Function = 0xA3
	FuncAggAvg     Function = 0xA4
	FuncAggListAgg Function = 0xA5
)

// Family returns the function family.
func (f Function) Family() Function {
	return f & FuncFamilyMask
}

// IsAggregate reports whether f is evaluated over a whole row list rather
// than a single row.
func (f Function) IsAggregate() bool {
	return f.Family() == FuncFamAgg
}

// Field names one input of a column node. Before resolution only Text is
// set and Index is FieldUnknown; resolution fills in TableID and Index.
type Field struct {
	Text    string
	TableID int
	Index   int
}

// NewField returns an unresolved field for the given text.
func NewField(text string) Field {
	return Field{Text: text, TableID: -1, Index: FieldUnknown}
}

// ConstantField returns a resolved constant field holding a literal.
func ConstantField(text string) Field {
	return Field{Text: text, TableID: -1, Index: FieldConstant}
}

// ColumnNode is one projection, predicate side, order key or group key.
// Fields[1] is only used by two-argument functions (LEFT, RIGHT), which
// keep their count argument there as a constant.
type ColumnNode struct {
	Alias    string
	Function Function
	Concat   bool
	Fields   [2]Field
}

// Predicate is a binary comparison between two column nodes.
type Predicate struct {
	Op    Operator
	Left  ColumnNode
	Right ColumnNode
}

// JoinKind selects INNER or LEFT semantics for a joined table.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
)

// Table is one FROM item. The first table drives the query; every later
// table carries the predicate it is joined on (Op == OpAlways for a plain
// cross join).
type Table struct {
	Name       string
	Alias      string
	Source     Source
	Join       Predicate
	JoinKind   JoinKind
	ColAliases []string
	Subquery   string
}

// Query flags.
const (
	FlagHavePredicate    = 1
	FlagGroup            = 2
	FlagPrimaryKeySearch = 4
	FlagOrder            = 8
	FlagExplain          = 4096
	FlagReadOnly         = 8192
)

// MaxOrderColumns caps the ORDER BY list.
const MaxOrderColumns = 10

// Query is the parsed and (after analysis) resolved form of a statement.
// Limit == -1 means unbounded.
type Query struct {
	Tables     []Table
	Columns    []ColumnNode
	Predicates []Predicate
	OrderNodes []ColumnNode
	OrderDirs  []Order
	GroupNodes []ColumnNode
	Offset     int
	Limit      int
	Flags      int
}

// Close releases every source opened for the query. Sources shared between
// tables (self joins) are only closed once.
func (q *Query) Close() error {
	var firstErr error
	closed := map[Source]bool{}
	for i := range q.Tables {
		src := q.Tables[i].Source
		if src == nil || closed[src] {
			continue
		}
		closed[src] = true
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
