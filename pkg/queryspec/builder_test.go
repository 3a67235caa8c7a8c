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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderSubstitutesArgNamesOnce(t *testing.T) {
	b := &QueryBuilder{Args: []ArgRef{{Name: "user_id"}, {Name: "status"}}}

	q, err := b.Build("select * from accounts where id = user_id and state = status and owner = user_id")
	require.NoError(t, err)

	require.Equal(t, "select * from accounts where id = $1 and state = $2 and owner = $1", q.SQL)
	require.Equal(t, []int{0, 1}, q.ArgLookup)
	require.Equal(t, 2, q.ArgCount())
}

func TestBuilderIgnoresUnrelatedIdentifiers(t *testing.T) {
	b := &QueryBuilder{Args: []ArgRef{{Name: "user_id"}}}

	q, err := b.Build("select user_id, created_at from accounts where id = user_id")
	require.NoError(t, err)

	require.Equal(t, "select $1, created_at from accounts where id = $1", q.SQL)
	require.Equal(t, []int{0}, q.ArgLookup)
}

func TestBuilderAddTypesAnnotatesPlaceholders(t *testing.T) {
	b := &QueryBuilder{
		Args:     []ArgRef{{Name: "user_id", Type: "bigint"}},
		AddTypes: true,
	}

	q, err := b.Build("select * from accounts where id = user_id")
	require.NoError(t, err)

	require.Equal(t, "select * from accounts where id = $1::bigint", q.SQL)
}

func TestStandardCallBuildsPositionalTemplate(t *testing.T) {
	args := []ArgRef{{Name: "a"}, {Name: "b", Type: "text"}}

	q := StandardCall("public.get_account", args, "*", true)

	require.Equal(t, "select * from public.get_account($1, $2::text)", q.SQL)
	require.Equal(t, []int{0, 1}, q.ArgLookup)
}
