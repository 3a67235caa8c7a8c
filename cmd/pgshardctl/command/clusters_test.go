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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestClustersCommandShowsPartitions(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0","host=db1"]}`)

	cmd := newClustersCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "accounts"})
	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), `cluster "accounts"`)
	require.Contains(t, out.String(), "host=db0")
	require.Contains(t, out.String(), "host=db1")
}

func TestClustersCommandRequiresFile(t *testing.T) {
	cmd := newClustersCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"accounts"})
	require.Error(t, cmd.Execute())
}
