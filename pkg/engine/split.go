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
	"fmt"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/queryspec"
)

// PartitionParams is what one physical connection needs to run a split
// call: the per-argument split array built from whichever rows were
// routed to it, one entry per function argument (nil for non-split
// arguments).
type PartitionParams struct {
	SplitArrays []*queryspec.Array
}

// SplitRow is one row of the optimized hash query's result: which
// source row (1-based, matching the original's idx/run_tag convention)
// it carries and which partition hash it landed on.
type SplitRow struct {
	Idx  int
	Hash int
}

// Planner builds PartitionParams for a split call, either from a
// single batched hash query (PlanOptimized) or by re-evaluating the
// RUN ON condition per row (PlanFallback). Both must produce identical
// results for the same input, since a host is free to choose either
// path per call.
type Planner struct {
	Cluster *cluster.Cluster
}

// ValidateLengths checks that every split argument's array has the same
// element count, matching prepare_and_tag_partitions' "split arrays
// must be of identical lengths" check. It returns -1 if there were no
// split arguments at all.
func ValidateLengths(arraysToSplit []*queryspec.Array) (int, error) {
	length := -1
	for _, a := range arraysToSplit {
		if a == nil {
			continue
		}
		if length < 0 {
			length = a.Len()
		} else if a.Len() != length {
			return 0, fmt.Errorf("engine: split arrays must be of identical lengths")
		}
	}
	return length, nil
}

// PlanOptimized implements the new_split_args path: a single query
// returns (idx, hash) for every row up front, generate_subscripts-style,
// and this just folds that batch into per-connection arrays. The first
// row to claim a given connection for a given idx wins; a later row
// landing on the same connection with the same idx as that connection's
// most recent row (possible when the host's hash query emits duplicate
// subscripts) is a no-op, matching "if (conn->run_tag == idx) continue".
func (p *Planner) PlanOptimized(rows []SplitRow, arraysToSplit []*queryspec.Array) (map[*cluster.Connection]*PartitionParams, error) {
	result := map[*cluster.Connection]*PartitionParams{}
	lastIdx := map[*cluster.Connection]int{}
	builders := map[*cluster.Connection][]*queryspec.Builder{}

	for _, r := range rows {
		if r.Idx < 1 {
			return nil, fmt.Errorf("engine: split row index must be >= 1, got %d", r.Idx)
		}
		conn := p.Cluster.Partition(queryspec.PartitionOf(r.Hash, p.Cluster.PartCount))
		if lastIdx[conn] == r.Idx {
			continue
		}
		lastIdx[conn] = r.Idx

		if _, ok := result[conn]; !ok {
			result[conn] = &PartitionParams{}
			builders[conn] = make([]*queryspec.Builder, len(arraysToSplit))
		}

		rowIdx := r.Idx - 1
		for col, arr := range arraysToSplit {
			if arr == nil {
				continue
			}
			if rowIdx >= arr.Len() {
				return nil, fmt.Errorf("engine: split row index %d out of range for argument %d", r.Idx, col)
			}
			if builders[conn][col] == nil {
				builders[conn][col] = queryspec.NewBuilder(arr.ElemOID)
			}
			builders[conn][col].Append(arr.Values[rowIdx], arr.Nulls[rowIdx])
		}
	}

	finalizeSplitBuilders(result, builders, len(arraysToSplit))
	return result, nil
}

// RunOnFunc evaluates the RUN ON condition for one row, returning the
// same PartCount-length 0/1 tag slice Tagger.TagTags produces.
type RunOnFunc func(row int) ([]int, error)

// PlanFallback implements old_split_args: re-run the RUN ON condition
// independently for every row and append that row's elements to
// whichever connections it selects.
func (p *Planner) PlanFallback(rowCount int, runOn RunOnFunc, arraysToSplit []*queryspec.Array) (map[*cluster.Connection]*PartitionParams, error) {
	result := map[*cluster.Connection]*PartitionParams{}
	builders := map[*cluster.Connection][]*queryspec.Builder{}

	for row := 0; row < rowCount; row++ {
		tags, err := runOn(row)
		if err != nil {
			return nil, err
		}
		for _, conn := range ConnectionsFromTags(p.Cluster, tags) {
			if _, ok := result[conn]; !ok {
				result[conn] = &PartitionParams{}
				builders[conn] = make([]*queryspec.Builder, len(arraysToSplit))
			}
			for col, arr := range arraysToSplit {
				if arr == nil {
					continue
				}
				if builders[conn][col] == nil {
					builders[conn][col] = queryspec.NewBuilder(arr.ElemOID)
				}
				builders[conn][col].Append(arr.Values[row], arr.Nulls[row])
			}
		}
	}

	finalizeSplitBuilders(result, builders, len(arraysToSplit))
	return result, nil
}

func finalizeSplitBuilders(result map[*cluster.Connection]*PartitionParams, builders map[*cluster.Connection][]*queryspec.Builder, argCount int) {
	for conn, pp := range result {
		pp.SplitArrays = make([]*queryspec.Array, argCount)
		for col, b := range builders[conn] {
			if b != nil {
				pp.SplitArrays[col] = b.Array()
			}
		}
	}
}
