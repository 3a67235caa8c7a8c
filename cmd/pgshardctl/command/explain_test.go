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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgshard/pgshard/pkg/engine"
)

func TestParseRunMode(t *testing.T) {
	cases := map[string]engine.RunMode{
		"hash":  engine.RunHash,
		"all":   engine.RunAll,
		"exact": engine.RunExact,
		"any":   engine.RunAny,
	}
	for s, want := range cases {
		got, err := parseRunMode(s)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := parseRunMode("bogus")
	require.Error(t, err)
}

func TestExplainCommandHashModeSelectsOnHashRow(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1","host=db2","host=db3"]}`)

	cmd := newExplainCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--mode", "hash", "--hash-row", "17", "accounts"})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "selects 1 connection")
	require.Contains(t, out.String(), "host=db1") // 17 & 3 == 1
}

func TestExplainCommandHashModeRequiresAHashRow(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1"]}`)

	cmd := newExplainCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--file", path, "--mode", "hash", "accounts"})
	require.Error(t, cmd.Execute())
}

func TestExplainCommandHashModeRejectsMultipleRowsWhenNotSetReturning(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1"]}`)

	cmd := newExplainCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--file", path, "--mode", "hash", "--hash-row", "0", "--hash-row", "1", "accounts"})
	require.Error(t, cmd.Execute())
}

func TestExplainCommandHashModeUnionsSetReturningRows(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1","host=db2","host=db3"]}`)

	cmd := newExplainCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--mode", "hash", "--hash-row", "0", "--hash-row", "2", "--set-returning", "accounts"})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "selects 2 connection")
}

func TestExplainCommandSelectsExactPartition(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1","host=db2","host=db3"]}`)

	cmd := newExplainCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--mode", "exact", "--partition", "2", "accounts"})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "selects 1 connection")
	require.Contains(t, out.String(), "host=db2")
}

func TestExplainCommandAllModeSelectsEveryConnection(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1"]}`)

	cmd := newExplainCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--mode", "all", "accounts"})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "selects 2 connection")
}

func TestExplainCommandRejectsUnknownMode(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0"]}`)

	cmd := newExplainCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--file", path, "--mode", "bogus", "accounts"})
	require.Error(t, cmd.Execute())
}
