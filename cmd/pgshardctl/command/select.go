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

package command

import (
	"fmt"
	"math/rand"

	"github.com/spf13/pflag"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/engine"
)

func parseRunMode(s string) (engine.RunMode, error) {
	switch s {
	case "hash":
		return engine.RunHash, nil
	case "all":
		return engine.RunAll, nil
	case "exact":
		return engine.RunExact, nil
	case "any":
		return engine.RunAny, nil
	default:
		return 0, fmt.Errorf("unknown run mode %q: want hash, all, exact, or any", s)
	}
}

// registerSelectionFlags wires the partition-selection flags shared by
// the explain and run subcommands onto fs.
func registerSelectionFlags(fs *pflag.FlagSet, mode *string, exactNr *int, hashRows *[]int, setReturning *bool) {
	fs.StringVar(mode, "mode", "all", "hash, all, exact, or any")
	fs.IntVar(exactNr, "partition", 0, "partition number to target (mode=exact)")
	fs.IntSliceVar(hashRows, "hash-row", nil, "decoded hash function result row, repeatable (mode=hash)")
	fs.BoolVar(setReturning, "set-returning", false, "the hash function is set-returning, so more than one --hash-row is allowed (mode=hash)")
}

// selectConnections resolves which connections a call should run on,
// the same decision engine.Tagger makes inside a real call: mode=hash
// goes through the hash-row cardinality check and union instead of a
// single scalar, per tag_hash_partitions' set-returning-function
// extension.
func selectConnections(tagger *engine.Tagger, mode engine.RunMode, exactNr int, hashRows []int, setReturning bool) ([]*cluster.Connection, error) {
	if mode == engine.RunHash {
		if len(hashRows) == 0 {
			return nil, fmt.Errorf("mode=hash requires at least one --hash-row")
		}
		rows := make([]any, len(hashRows))
		for i, h := range hashRows {
			rows[i] = int64(h)
		}
		return tagger.TagConnectionsFromHashRows(rows, setReturning)
	}
	return tagger.TagConnections(mode, exactNr, 0, rand.Int)
}
