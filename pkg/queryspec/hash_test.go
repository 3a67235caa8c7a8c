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

func TestDecodeHashResultAcceptsAnyIntegerWidth(t *testing.T) {
	cases := []any{int16(3), int32(3), int64(3), int(3)}
	for _, v := range cases {
		n, err := DecodeHashResult(v)
		require.NoError(t, err)
		require.Equal(t, 3, n)
	}
}

func TestDecodeHashResultRejectsNullAndWrongType(t *testing.T) {
	_, err := DecodeHashResult(nil)
	require.Error(t, err)

	_, err = DecodeHashResult("3")
	require.Error(t, err)
}

func TestPartitionOfMasksAgainstPartitionCount(t *testing.T) {
	require.Equal(t, 0, PartitionOf(16, 16))
	require.Equal(t, 5, PartitionOf(5, 16))
	require.Equal(t, 1, PartitionOf(17, 16))
	require.Equal(t, 3, PartitionOf(-29, 32)) // two's complement AND still yields a valid slot
}
