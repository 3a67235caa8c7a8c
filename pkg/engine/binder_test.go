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

package engine

import (
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/require"

	"github.com/pgshard/pgshard/pkg/codec"
	"github.com/pgshard/pgshard/pkg/queryspec"
)

func TestBindSharedEncodesNonSplitArgsAndSkipsSplit(t *testing.T) {
	b := &Binder{Registry: codec.Default()}
	specs := []ArgSpec{
		{OID: oid.T_int4, Split: false},
		{OID: oid.T_int4, Split: true},
	}

	out, err := b.BindShared(specs, []any{int32(42), nil})
	require.NoError(t, err)

	require.Equal(t, "42", out[0])
	require.Nil(t, out[1])
}

func TestBindPartitionFillsSplitArgsLeavesSharedUntouched(t *testing.T) {
	b := &Binder{Registry: codec.Default()}
	specs := []ArgSpec{
		{OID: oid.T_int4, Split: false},
		{OID: oid.T_int4, Split: true},
	}

	shared, err := b.BindShared(specs, []any{int32(7), nil})
	require.NoError(t, err)

	pp := &PartitionParams{SplitArrays: []*queryspec.Array{
		nil,
		{ElemOID: oid.T_int4, Values: []any{int32(1), int32(2)}, Nulls: []bool{false, false}},
	}}

	out, err := b.BindPartition(specs, shared, pp)
	require.NoError(t, err)

	require.Equal(t, "7", out[0])
	require.Equal(t, `{"1","2"}`, out[1])
	require.Equal(t, "7", shared[0], "shared slice must not be mutated by BindPartition")
}

func TestBindPartitionEmptyArrayIsEmptyLiteral(t *testing.T) {
	b := &Binder{Registry: codec.Default()}
	specs := []ArgSpec{{OID: oid.T_int4, Split: true}}

	out, err := b.BindPartition(specs, make([]any, 1), &PartitionParams{SplitArrays: []*queryspec.Array{nil}})
	require.NoError(t, err)
	require.Equal(t, "{}", out[0])
}

func TestBindPartitionEscapesQuotesAndBackslashes(t *testing.T) {
	b := &Binder{Registry: codec.Default()}
	specs := []ArgSpec{{OID: oid.T_text, Split: true}}

	pp := &PartitionParams{SplitArrays: []*queryspec.Array{
		{ElemOID: oid.T_text, Values: []any{`say "hi" a\b`}, Nulls: []bool{false}},
	}}

	out, err := b.BindPartition(specs, make([]any, 1), pp)
	require.NoError(t, err)
	require.Equal(t, `{"say \"hi\" a\\b"}`, out[0])
}
