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
)

func TestRunCommandRequiresQuery(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0"]}`)

	cmd := newRunCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--file", path, "accounts"})
	require.Error(t, cmd.Execute())
}

func TestRunCommandRejectsUnknownMode(t *testing.T) {
	path := writeDefinition(t, `{"partitions":["host=db0"]}`)

	cmd := newRunCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--file", path, "--mode", "bogus", "--query", "select 1", "accounts"})
	require.Error(t, cmd.Execute())
}
