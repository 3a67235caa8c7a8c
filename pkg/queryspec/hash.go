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

package queryspec

import "fmt"

// DecodeHashResult interprets one single-column result row of a hash
// function call as a raw integer hash value (possibly negative; see
// PartitionOf for the fold into a partition index), accepting
// int2/int4/int8 the way execute.c's get_int() accepted whichever
// width the hash function author chose to return.
func DecodeHashResult(v any) (int, error) {
	switch n := v.(type) {
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case nil:
		return 0, fmt.Errorf("queryspec: hash function returned NULL")
	default:
		return 0, fmt.Errorf("queryspec: hash function returned %T, want an integer", v)
	}
}

// PartitionOf folds a raw hash result into [0, partCount) the same way
// tag_hash_partitions does: by masking against partCount-1, which
// requires partCount to be a power of two (enforced when a cluster's
// partition map is built).
func PartitionOf(hash int, partCount int) int {
	mask := partCount - 1
	return hash & mask
}
