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

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt4CodecBinaryRoundTrip(t *testing.T) {
	c := int4Codec{}
	b, err := c.EncodeBinary(int32(-7))
	require.NoError(t, err)

	v, err := c.DecodeBinary(b)
	require.NoError(t, err)
	require.Equal(t, int32(-7), v)
}

func TestInt8CodecTextRoundTrip(t *testing.T) {
	c := int8Codec{}
	s, err := c.EncodeText(int64(1 << 40))
	require.NoError(t, err)

	v, err := c.DecodeText(s)
	require.NoError(t, err)
	require.Equal(t, int64(1<<40), v)
}

func TestBoolCodecText(t *testing.T) {
	c := boolCodec{}
	s, err := c.EncodeText(true)
	require.NoError(t, err)
	require.Equal(t, "t", s)

	v, err := c.DecodeText("f")
	require.NoError(t, err)
	require.Equal(t, false, v)
}

func TestFloat8CodecBinaryRoundTrip(t *testing.T) {
	c := float8Codec{}
	b, err := c.EncodeBinary(3.5)
	require.NoError(t, err)

	v, err := c.DecodeBinary(b)
	require.NoError(t, err)
	require.Equal(t, 3.5, v)
}

func TestInt2CodecRejectsWrongByteLength(t *testing.T) {
	c := int2Codec{}
	_, err := c.DecodeBinary([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestAsInt64RejectsNonInteger(t *testing.T) {
	_, err := asInt64("nope")
	require.Error(t, err)
}
