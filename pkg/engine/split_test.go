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
	"sort"
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/require"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/queryspec"
)

func TestValidateLengthsRejectsMismatch(t *testing.T) {
	a := &queryspec.Array{Values: []any{int32(1), int32(2)}, Nulls: []bool{false, false}}
	b := &queryspec.Array{Values: []any{int32(1)}, Nulls: []bool{false}}

	_, err := ValidateLengths([]*queryspec.Array{a, b})
	require.Error(t, err)
}

func TestValidateLengthsIgnoresNonSplitSlots(t *testing.T) {
	a := &queryspec.Array{Values: []any{int32(1), int32(2)}, Nulls: []bool{false, false}}

	n, err := ValidateLengths([]*queryspec.Array{nil, a, nil})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

// hashRowsFor computes the (idx, hash) pairs for every element of elems,
// using each element's own value as its hash, the test's stand-in for a
// real hash function executed once per element.
func hashRowsFor(cl *cluster.Cluster, elems []int) []SplitRow {
	rows := make([]SplitRow, len(elems))
	for i, v := range elems {
		rows[i] = SplitRow{Idx: i + 1, Hash: v}
	}
	return rows
}

func TestPlanOptimizedAndPlanFallbackAgree(t *testing.T) {
	cl := newTestCluster(t, []string{"host=db0", "host=db1", "host=db2", "host=db3"})
	elems := []int{10, 11, 12, 13, 14, 15, 16, 17}
	arr := &queryspec.Array{
		ElemOID: oid.T_int4,
		Values:  []any{int32(10), int32(11), int32(12), int32(13), int32(14), int32(15), int32(16), int32(17)},
		Nulls:   make([]bool, 8),
	}
	arraysToSplit := []*queryspec.Array{arr}

	p := &Planner{Cluster: cl}

	optimized, err := p.PlanOptimized(hashRowsFor(cl, elems), arraysToSplit)
	require.NoError(t, err)

	tagger := &Tagger{Cluster: cl}
	runOn := func(row int) ([]int, error) {
		return tagger.TagTags(RunHash, 0, elems[row], nil)
	}
	fallback, err := p.PlanFallback(len(elems), runOn, arraysToSplit)
	require.NoError(t, err)

	require.Equal(t, connectionValueSets(optimized), connectionValueSets(fallback))
}

// connectionValueSets extracts, per connstr, the sorted set of int32
// values routed to that connection's first split argument, so the two
// planning strategies can be compared independent of map iteration or
// connection pointer identity.
func connectionValueSets(plan map[*cluster.Connection]*PartitionParams) map[string][]int32 {
	out := make(map[string][]int32, len(plan))
	for conn, pp := range plan {
		var vals []int32
		if pp.SplitArrays[0] != nil {
			for _, v := range pp.SplitArrays[0].Values {
				vals = append(vals, v.(int32))
			}
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
		out[conn.Connstr] = vals
	}
	return out
}

func TestPlanOptimizedFirstWriteWinsOnDuplicateIdx(t *testing.T) {
	cl := newTestCluster(t, []string{"host=db0", "host=db1"})
	arr := &queryspec.Array{
		ElemOID: oid.T_int4,
		Values:  []any{int32(100)},
		Nulls:   []bool{false},
	}

	p := &Planner{Cluster: cl}
	rows := []SplitRow{
		{Idx: 1, Hash: 0}, // first write for row 1 on partition 0
		{Idx: 1, Hash: 0}, // duplicate (idx, connection) pair: must be a no-op
	}

	plan, err := p.PlanOptimized(rows, []*queryspec.Array{arr})
	require.NoError(t, err)

	require.Len(t, plan, 1)
	for _, pp := range plan {
		require.Len(t, pp.SplitArrays[0].Values, 1, "the duplicate row must not append a second element")
	}
}
