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

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSameBranchIgnoresPatchVersion(t *testing.T) {
	require.True(t, SameBranch(150003, 150000))
	require.True(t, SameBranch(90603, 90601))
}

func TestSameBranchRejectsDifferentMajorMinor(t *testing.T) {
	require.False(t, SameBranch(150003, 140003))
	require.False(t, SameBranch(90603, 90503))
}
