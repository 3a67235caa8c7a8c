// Copyright 2025 Supabase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package queryspec holds the immutable, per-function query templates
// and split-array value carriers the engine binds parameters into.
package queryspec

import "github.com/lib/pq/oid"

// Query is a SQL template with $1..$n placeholders, plus the mapping
// from each placeholder's position back to the originating function
// argument. It is built once per function and never mutated afterward.
type Query struct {
	// SQL is the prepared template, e.g. "select * from f($1, $2)".
	SQL string

	// ArgLookup maps a local placeholder index (0-based, so ArgLookup[i]
	// describes $i+1) to the function's own argument index.
	ArgLookup []int
}

// ArgCount is the number of placeholders in the template.
func (q *Query) ArgCount() int { return len(q.ArgLookup) }

// Array is a deconstructed array argument: the element type, the value
// vector, the null-flag vector, all the same length.
type Array struct {
	ElemOID oid.Oid
	Values  []any
	Nulls   []bool
}

// Len returns the element count.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Values)
}

// Builder accumulates per-partition array elements while the split
// planner routes a split array's elements across partitions. One
// Builder exists per (connection, argument) pair for the duration of a
// call.
type Builder struct {
	elemOID oid.Oid
	values  []any
	nulls   []bool
}

// NewBuilder starts an accumulator for elements of the given type.
func NewBuilder(elemOID oid.Oid) *Builder {
	return &Builder{elemOID: elemOID}
}

// Append adds one element (possibly NULL) to the accumulator.
func (b *Builder) Append(v any, isNull bool) {
	b.values = append(b.values, v)
	b.nulls = append(b.nulls, isNull)
}

// Array materializes the accumulated elements into a concrete Array
// value, ready to stand in for the original split argument.
func (b *Builder) Array() *Array {
	return &Array{ElemOID: b.elemOID, Values: b.values, Nulls: b.nulls}
}
