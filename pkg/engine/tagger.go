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

// RunMode is the Go equivalent of RunOnType: where a call should
// execute.
type RunMode int

const (
	RunHash RunMode = iota
	RunAll
	RunExact
	RunAny
)

// Tagger decides, for one cluster, which partitions a call (or one row
// of a split call) should run on, the Go equivalent of
// tag_run_on_partitions/tag_hash_partitions.
type Tagger struct {
	Cluster *cluster.Cluster
}

// TagTags returns a PartCount-length slice with a 1 at each selected
// partition's index and 0 elsewhere, the same shape tag_run_on_partitions
// leaves behind in part_map[i]->run_tag. randSrc supplies the random
// source for RunAny (injected so tests are deterministic).
func (t *Tagger) TagTags(mode RunMode, exactNr int, hash int, randSrc func() int) ([]int, error) {
	tags := make([]int, t.Cluster.PartCount)
	switch mode {
	case RunHash:
		tags[queryspec.PartitionOf(hash, t.Cluster.PartCount)] = 1
	case RunAll:
		for i := range tags {
			tags[i] = 1
		}
	case RunExact:
		if exactNr < 0 || exactNr >= t.Cluster.PartCount {
			return nil, fmt.Errorf("engine: partition number %d out of range", exactNr)
		}
		tags[exactNr] = 1
	case RunAny:
		tags[randSrc()&t.Cluster.PartMask] = 1
	default:
		return nil, fmt.Errorf("engine: uninitialized run mode")
	}
	return tags, nil
}

// TagConnections resolves TagTags' output straight to the distinct
// physical connections that must run the call, deduplicating
// partitions that share a connstr exactly the way iterating conn_list
// instead of part_map did in the original.
func (t *Tagger) TagConnections(mode RunMode, exactNr int, hash int, randSrc func() int) ([]*cluster.Connection, error) {
	tags, err := t.TagTags(mode, exactNr, hash, randSrc)
	if err != nil {
		return nil, err
	}
	return ConnectionsFromTags(t.Cluster, tags), nil
}

// TagHashRows turns a hash query's decoded result rows into a tag set,
// the Go equivalent of tag_hash_partitions' result-cardinality contract:
// a plain (non-set-returning) hash function must return exactly one
// row, a set-returning one may return any number of rows and each is
// unioned into the selected partition set, and zero rows or a NULL
// hash value are both fatal regardless of which kind of function ran.
func (t *Tagger) TagHashRows(rows []any, setReturning bool) ([]int, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("engine: hash function returned no rows")
	}
	if !setReturning && len(rows) != 1 {
		return nil, fmt.Errorf("engine: hash function returned %d rows, want exactly 1 for a non-set-returning function", len(rows))
	}

	tags := make([]int, t.Cluster.PartCount)
	for _, raw := range rows {
		hash, err := queryspec.DecodeHashResult(raw)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		tags[queryspec.PartitionOf(hash, t.Cluster.PartCount)] = 1
	}
	return tags, nil
}

// TagConnectionsFromHashRows resolves TagHashRows' output straight to
// the distinct physical connections the call must run on.
func (t *Tagger) TagConnectionsFromHashRows(rows []any, setReturning bool) ([]*cluster.Connection, error) {
	tags, err := t.TagHashRows(rows, setReturning)
	if err != nil {
		return nil, err
	}
	return ConnectionsFromTags(t.Cluster, tags), nil
}

// ConnectionsFromTags collapses a PartCount-length tag slice into the
// distinct *cluster.Connection values it selects, preserving the order
// partitions first introduced each connection.
func ConnectionsFromTags(cl *cluster.Cluster, tags []int) []*cluster.Connection {
	seen := make(map[*cluster.Connection]bool, len(cl.ConnList))
	var out []*cluster.Connection
	for i, tag := range tags {
		if tag == 0 {
			continue
		}
		conn := cl.PartMap[i]
		if seen[conn] {
			continue
		}
		seen[conn] = true
		out = append(out, conn)
	}
	return out
}
