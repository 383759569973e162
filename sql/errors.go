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

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrSyntax is returned for any syntactic violation, carrying the
	// expected set and the offending token.
	ErrSyntax = errors.NewKind("syntax error: expected %s; got '%s'")

	// ErrTokenTooLong is returned when a token exceeds a static maximum.
	ErrTokenTooLong = errors.NewKind("token exceeds maximum length of %d")

	// ErrTableNotFound is returned when a FROM item cannot be opened.
	ErrTableNotFound = errors.NewKind("unable to use table: '%s'")

	// ErrColumnNotFound is returned when a referenced column cannot be
	// resolved on any table.
	ErrColumnNotFound = errors.NewKind("unable to find column '%s'")

	// ErrIndexNotFound is returned when a plan step requires an index that
	// does not exist or has the wrong kind.
	ErrIndexNotFound = errors.NewKind("unable to find %s index on column '%s' of table '%s'")

	// ErrUniqueViolation is returned by CREATE UNIQUE INDEX when two rows
	// share a value.
	ErrUniqueViolation = errors.NewKind("UNIQUE constraint failed: multiple rows with value '%s'")

	// ErrEmptySource is returned when a file or stream holds no data.
	ErrEmptySource = errors.NewKind("'%s' was empty")

	// ErrBadDate is returned by EXTRACT when its input has no recognised
	// date format.
	ErrBadDate = errors.NewKind("unrecognised date/time value: '%s'")

	// ErrUnknownFunction is returned for an unrecognised function token.
	ErrUnknownFunction = errors.NewKind("unknown function: '%s'")

	// ErrReadOnly is returned when a mutating statement reaches a
	// read-only engine.
	ErrReadOnly = errors.NewKind("tried to %s while in read-only mode")

	// ErrNoTables is returned for a non-constant query with no FROM clause
	// and no stdin to fall back to.
	ErrNoTables = errors.NewKind("no tables specified")

	// ErrUnsupportedFeature is returned for recognised but unimplemented
	// constructs.
	ErrUnsupportedFeature = errors.NewKind("unsupported feature: %s")
)
