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
	"context"
	"math/rand"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

// Context carries the per-query ambient state: logger, tracer, clock and
// random source. The engine passes one Context through parse, analysis,
// planning and execution; there is no other shared state.
type Context struct {
	context.Context
	logger *logrus.Entry
	tracer opentracing.Tracer
	rnd    *rand.Rand
	now    func() time.Time
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger entry.
func WithLogger(e *logrus.Entry) ContextOption {
	return func(c *Context) { c.logger = e }
}

// WithTracer sets the tracer used by Span.
func WithTracer(t opentracing.Tracer) ContextOption {
	return func(c *Context) { c.tracer = t }
}

// WithRand sets the random source used by RANDOM() and SAMPLE.
func WithRand(r *rand.Rand) ContextOption {
	return func(c *Context) { c.rnd = r }
}

// WithNow sets the clock used by CURRENT_DATE and TODAY().
func WithNow(now func() time.Time) ContextOption {
	return func(c *Context) { c.now = now }
}

// NewContext creates a Context from a parent context.Context.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	c := &Context{Context: ctx}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if c.tracer == nil {
		c.tracer = opentracing.NoopTracer{}
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// NewEmptyContext returns a default Context, mostly for tests.
func NewEmptyContext() *Context {
	return NewContext(context.TODO())
}

// Logger returns the context logger.
func (c *Context) Logger() *logrus.Entry {
	return c.logger
}

// Rand returns the context random source.
func (c *Context) Rand() *rand.Rand {
	return c.rnd
}

// Now returns the context clock's current time.
func (c *Context) Now() time.Time {
	return c.now()
}

// Span starts a trace span. The returned Context carries the span as its
// active one; callers must Finish the span.
func (c *Context) Span(opName string) (opentracing.Span, *Context) {
	var span opentracing.Span
	if parent := opentracing.SpanFromContext(c.Context); parent != nil {
		span = c.tracer.StartSpan(opName, opentracing.ChildOf(parent.Context()))
	} else {
		span = c.tracer.StartSpan(opName)
	}

	child := *c
	child.Context = opentracing.ContextWithSpan(c.Context, span)
	return span, &child
}
