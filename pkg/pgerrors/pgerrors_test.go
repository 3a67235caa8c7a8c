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

package pgerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesKindAndFunction(t *testing.T) {
	err := New(KindRemote, errors.New("boom")).WithFunction("accounts.get").WithCluster("accounts")

	require.Equal(t, "pgshard: remote (function accounts.get): boom", err.Error())
	require.Equal(t, "accounts", err.Cluster)
}

func TestErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindConnection, cause)

	require.ErrorIs(t, err, cause)
}

func TestIsMatchesWrappedKind(t *testing.T) {
	base := New(KindTimeout, errors.New("deadline exceeded"))
	wrapped := fmt.Errorf("during call: %w", base)

	require.True(t, Is(wrapped, KindTimeout))
	require.False(t, Is(wrapped, KindRemote))
}

func TestWithFunctionDoesNotMutateOriginal(t *testing.T) {
	base := New(KindSplit, errors.New("bad array"))
	tagged := base.WithFunction("accounts.list")

	require.Empty(t, base.Function)
	require.Equal(t, "accounts.list", tagged.Function)
}

func TestPgDiagnosticIsFatal(t *testing.T) {
	require.True(t, (&PgDiagnostic{Severity: "FATAL"}).IsFatal())
	require.True(t, (&PgDiagnostic{Severity: "PANIC"}).IsFatal())
	require.False(t, (&PgDiagnostic{Severity: "WARNING"}).IsFatal())
}
