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
	"strings"

	"github.com/lib/pq/oid"

	"github.com/pgshard/pgshard/pkg/codec"
	"github.com/pgshard/pgshard/pkg/queryspec"
)

// ArgSpec describes one remote-call argument's static shape: its type
// and whether it is a split argument (IS_SPLIT_ARG).
type ArgSpec struct {
	OID   oid.Oid
	Split bool
}

// Binder turns plain argument values plus per-partition split arrays
// into the positional parameter list a query template expects,
// encoding each non-split value once and reusing it across every
// partition (prepare_query_parameters never re-encodes a shared value
// per connection).
//
// Parameter values are always handed to the wire layer as their text
// encoding: database/sql's driver interface (lib/pq included) has no
// notion of an explicit wire format code per parameter, so the
// binary_result/PQsendQueryParams format array from send_query has no
// equivalent here — a host that needs wire-level binary parameters
// must go around this package and drive pkg/wire directly.
type Binder struct {
	Registry codec.Registry
}

// BindShared encodes every non-split argument once, leaving a nil
// placeholder at each split argument's position.
func (b *Binder) BindShared(specs []ArgSpec, args []any) ([]any, error) {
	out := make([]any, len(specs))
	for i, spec := range specs {
		if spec.Split {
			continue
		}
		c, ok := b.Registry.Lookup(spec.OID)
		if !ok {
			return nil, fmt.Errorf("engine: no codec registered for oid %d", spec.OID)
		}
		param, err := codec.EncodeParam(c, args[i], false)
		if err != nil {
			return nil, fmt.Errorf("engine: encode argument %d: %w", i, err)
		}
		out[i] = paramToDriverValue(param)
	}
	return out, nil
}

// BindPartition completes a shared parameter list with one partition's
// split arrays, returning a fresh slice (the shared list itself is
// never mutated, since every partition reuses it).
func (b *Binder) BindPartition(specs []ArgSpec, shared []any, pp *PartitionParams) ([]any, error) {
	out := make([]any, len(specs))
	copy(out, shared)
	for i, spec := range specs {
		if !spec.Split {
			continue
		}
		var arr *queryspec.Array
		if pp != nil {
			arr = pp.SplitArrays[i]
		}
		c, ok := b.Registry.Lookup(spec.OID)
		if !ok {
			return nil, fmt.Errorf("engine: no codec registered for oid %d", spec.OID)
		}
		lit, err := encodeArrayLiteral(c, arr)
		if err != nil {
			return nil, fmt.Errorf("engine: encode split argument %d: %w", i, err)
		}
		out[i] = lit
	}
	return out, nil
}

func paramToDriverValue(p codec.Param) any {
	if p.IsNull {
		return nil
	}
	return string(p.Value)
}

// encodeArrayLiteral renders arr as a Postgres array literal
// ('{"a","b"}'-style), the text-format equivalent of makeArrayResult:
// the accumulated per-connection Datum array, ready to stand in for the
// original split argument once PostgreSQL's array input function
// parses it back out server-side.
func encodeArrayLiteral(c codec.Codec, arr *queryspec.Array) (string, error) {
	if arr == nil || arr.Len() == 0 {
		return "{}", nil
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range arr.Values {
		if i > 0 {
			sb.WriteByte(',')
		}
		if arr.Nulls[i] {
			sb.WriteString("NULL")
			continue
		}
		s, err := c.EncodeText(v)
		if err != nil {
			return "", err
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String(), nil
}
