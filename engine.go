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

// Package flatsql is a one-shot SQL engine over tabular sources:
// delimited files, synthetic tables, directory listings, views and
// subqueries. A query runs parse → resolve → plan → execute → emit and
// the process is done.
package flatsql

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flatbase/flatsql/output"
	"github.com/flatbase/flatsql/sql"
	"github.com/flatbase/flatsql/sql/analyzer"
	"github.com/flatbase/flatsql/sql/parse"
	"github.com/flatbase/flatsql/sql/plan"
	"github.com/flatbase/flatsql/sql/rowexec"
	"github.com/flatbase/flatsql/vfs"
)

// Config for the Engine.
type Config struct {
	// Stdin, when non-nil, backs the table named "stdin" and enables the
	// implicit FROM stdin fallback.
	Stdin io.Reader

	// ReadOnly disallows CREATE and INSERT.
	ReadOnly bool
}

// Engine executes statements. One engine may run many queries, but each
// query is strictly sequential and owns the sources it opens.
type Engine struct {
	registry *vfs.Registry
	analyzer *analyzer.Analyzer
	readOnly bool
	hasStdin bool
}

// New creates an Engine with the given configuration.
func New(cfg Config) *Engine {
	e := &Engine{
		registry: &vfs.Registry{Stdin: cfg.Stdin},
		readOnly: cfg.ReadOnly,
		hasStdin: cfg.Stdin != nil,
	}
	e.registry.Runner = e.runSubquery
	e.analyzer = analyzer.New(e.registry)
	return e
}

// NewDefault creates an Engine with the default settings.
func NewDefault() *Engine {
	return New(Config{})
}

// Query dispatches one statement and writes its result to w.
func (e *Engine) Query(ctx *sql.Context, query string, w io.Writer, opts output.Options) error {
	query = strings.TrimSpace(query)

	if strings.HasPrefix(query, "CREATE ") {
		if e.readOnly {
			return sql.ErrReadOnly.New("CREATE")
		}
		return e.createQuery(ctx, query)
	}

	if strings.HasPrefix(query, "INSERT ") {
		if e.readOnly {
			return sql.ErrReadOnly.New("INSERT")
		}
		return e.insertQuery(ctx, query)
	}

	// Escaped formats cannot emit concat columns directly; run the query
	// as a CSV subquery and re-emit its rows.
	if opts.Format.Escaped() && strings.Contains(query, "||") {
		return e.selectQuery(ctx, "FROM ("+query+")", w, opts)
	}

	return e.selectQuery(ctx, query, w, opts)
}

func (e *Engine) selectQuery(ctx *sql.Context, query string, w io.Writer, opts output.Options) error {
	q, err := parse.ParseQuery(query)
	if err != nil {
		return err
	}

	// EXPLAIN always renders as CSV; for any other format wrap the whole
	// query so the explain output is re-emitted as data.
	if q.Flags&sql.FlagExplain != 0 && opts.Format != output.CSV {
		return e.selectQuery(ctx, "FROM ("+query+")", w, opts)
	}

	// Grouping and ordering cannot run in one pass: materialise the
	// grouped query, then order the materialised rows.
	if q.Flags&sql.FlagGroup != 0 && q.Flags&sql.FlagOrder != 0 {
		return e.groupThenOrder(ctx, q, w, opts)
	}

	return e.processQuery(ctx, q, w, opts)
}

// groupThenOrder runs the query minus its ORDER BY into a temp CSV file,
// then sorts that file with a second query.
func (e *Engine) groupThenOrder(ctx *sql.Context, q *sql.Query, w io.Writer, opts output.Options) error {
	for i := range q.OrderNodes {
		if q.OrderNodes[i].Function != sql.FuncUnity {
			return sql.ErrUnsupportedFeature.New("ORDER BY with a function alongside GROUP BY")
		}
	}

	f, err := os.CreateTemp("", "flatsql.*.csv")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)

	grouped := *q
	grouped.Flags &^= sql.FlagOrder
	grouped.OrderNodes = nil
	grouped.OrderDirs = nil

	err = e.processQuery(ctx, &grouped, f, output.Options{Format: output.CSV, Headers: true})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "FROM %q ORDER BY", tmpName)
	for i := range q.OrderNodes {
		if i > 0 {
			sb.WriteString(",")
		}
		dir := "ASC"
		if q.OrderDirs[i] == sql.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " %s %s", q.OrderNodes[i].Fields[0].Text, dir)
	}

	return e.selectQuery(ctx, sb.String(), w, opts)
}

func (e *Engine) processQuery(ctx *sql.Context, q *sql.Query, w io.Writer, opts output.Options) error {
	// With no FROM clause, redirected stdin becomes the implicit table.
	if len(q.Tables) == 0 && e.hasStdin {
		q.Tables = []sql.Table{{
			Name:  "stdin",
			Alias: "stdin",
			Join:  sql.Predicate{Op: sql.OpAlways},
		}}
	}

	if len(q.Tables) > 0 && q.Tables[0].Name == "INFORMATION" {
		if len(q.Predicates) < 1 {
			return sql.ErrNoTables.New()
		}
		return e.informationQuery(ctx, q.Predicates[0].Right.Fields[0].Text, w)
	}

	defer q.Close()

	if err := e.analyzer.Analyze(ctx, q); err != nil {
		return err
	}

	p := plan.Build(q)

	if q.Flags&sql.FlagExplain != 0 {
		return plan.Explain(q, p, w, opts.Headers)
	}

	_, err := rowexec.ExecutePlan(ctx, q, p, output.NewWriter(w, opts))
	return err
}

// runSubquery materialises a nested query as headed CSV, feeding views,
// FROM subqueries and the GROUP+ORDER rewrite.
func (e *Engine) runSubquery(ctx *sql.Context, query string, w io.Writer) error {
	return e.selectQuery(ctx, query, w, output.Options{Format: output.CSV, Headers: true})
}
