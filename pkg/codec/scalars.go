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
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/lib/pq/oid"
)

// The scalar codecs below intentionally support binary recv (HasRecv)
// for the integer types, since those are what the hash function must
// return per the partition-tagging contract, and binary send/recv for
// bool and the float types; text supports binary send but reports no
// binary recv.

type int2Codec struct{}

func (int2Codec) OID() oid.Oid    { return oid.T_int2 }
func (int2Codec) Name() string    { return "int2" }
func (int2Codec) HasSend() bool   { return true }
func (int2Codec) HasRecv() bool   { return true }
func (int2Codec) ElemOID() oid.Oid { return 0 }

func (int2Codec) EncodeText(v any) (string, error) {
	n, err := asInt64(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (int2Codec) EncodeBinary(v any) ([]byte, error) {
	n, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(int16(n)))
	return buf, nil
}

func (int2Codec) DecodeText(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 16)
	return int16(n), err
}

func (int2Codec) DecodeBinary(b []byte) (any, error) {
	if len(b) != 2 {
		return nil, fmt.Errorf("int2: want 2 bytes, got %d", len(b))
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

type int4Codec struct{}

func (int4Codec) OID() oid.Oid    { return oid.T_int4 }
func (int4Codec) Name() string    { return "int4" }
func (int4Codec) HasSend() bool   { return true }
func (int4Codec) HasRecv() bool   { return true }
func (int4Codec) ElemOID() oid.Oid { return 0 }

func (int4Codec) EncodeText(v any) (string, error) {
	n, err := asInt64(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (int4Codec) EncodeBinary(v any) ([]byte, error) {
	n, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(int32(n)))
	return buf, nil
}

func (int4Codec) DecodeText(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

func (int4Codec) DecodeBinary(b []byte) (any, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("int4: want 4 bytes, got %d", len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

type int8Codec struct{}

func (int8Codec) OID() oid.Oid    { return oid.T_int8 }
func (int8Codec) Name() string    { return "int8" }
func (int8Codec) HasSend() bool   { return true }
func (int8Codec) HasRecv() bool   { return true }
func (int8Codec) ElemOID() oid.Oid { return 0 }

func (int8Codec) EncodeText(v any) (string, error) {
	n, err := asInt64(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (int8Codec) EncodeBinary(v any) ([]byte, error) {
	n, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf, nil
}

func (int8Codec) DecodeText(s string) (any, error) {
	return strconv.ParseInt(s, 10, 64)
}

func (int8Codec) DecodeBinary(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("int8: want 8 bytes, got %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

type textCodec struct{}

func (textCodec) OID() oid.Oid    { return oid.T_text }
func (textCodec) Name() string    { return "text" }
func (textCodec) HasSend() bool   { return true }
func (textCodec) HasRecv() bool   { return false } // text recv is the text path itself
func (textCodec) ElemOID() oid.Oid { return 0 }

func (textCodec) EncodeText(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("text: want string, got %T", v)
	}
	return s, nil
}

func (c textCodec) EncodeBinary(v any) ([]byte, error) {
	s, err := c.EncodeText(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (textCodec) DecodeText(s string) (any, error) { return s, nil }

func (textCodec) DecodeBinary(b []byte) (any, error) { return string(b), nil }

type boolCodec struct{}

func (boolCodec) OID() oid.Oid    { return oid.T_bool }
func (boolCodec) Name() string    { return "bool" }
func (boolCodec) HasSend() bool   { return true }
func (boolCodec) HasRecv() bool   { return true }
func (boolCodec) ElemOID() oid.Oid { return 0 }

func (boolCodec) EncodeText(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", fmt.Errorf("bool: want bool, got %T", v)
	}
	if b {
		return "t", nil
	}
	return "f", nil
}

func (boolCodec) EncodeBinary(v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("bool: want bool, got %T", v)
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (boolCodec) DecodeText(s string) (any, error) {
	return s == "t" || s == "true" || s == "1", nil
}

func (boolCodec) DecodeBinary(b []byte) (any, error) {
	if len(b) != 1 {
		return nil, fmt.Errorf("bool: want 1 byte, got %d", len(b))
	}
	return b[0] != 0, nil
}

type float4Codec struct{}

func (float4Codec) OID() oid.Oid    { return oid.T_float4 }
func (float4Codec) Name() string    { return "float4" }
func (float4Codec) HasSend() bool   { return true }
func (float4Codec) HasRecv() bool   { return true }
func (float4Codec) ElemOID() oid.Oid { return 0 }

func (float4Codec) EncodeText(v any) (string, error) {
	f, err := asFloat64(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, 32), nil
}

func (float4Codec) EncodeBinary(v any) ([]byte, error) {
	f, err := asFloat64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
	return buf, nil
}

func (float4Codec) DecodeText(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}

func (float4Codec) DecodeBinary(b []byte) (any, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("float4: want 4 bytes, got %d", len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

type float8Codec struct{}

func (float8Codec) OID() oid.Oid    { return oid.T_float8 }
func (float8Codec) Name() string    { return "float8" }
func (float8Codec) HasSend() bool   { return true }
func (float8Codec) HasRecv() bool   { return true }
func (float8Codec) ElemOID() oid.Oid { return 0 }

func (float8Codec) EncodeText(v any) (string, error) {
	f, err := asFloat64(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (float8Codec) EncodeBinary(v any) ([]byte, error) {
	f, err := asFloat64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(f))
	return buf, nil
}

func (float8Codec) DecodeText(s string) (any, error) {
	return strconv.ParseFloat(s, 64)
}

func (float8Codec) DecodeBinary(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("float8: want 8 bytes, got %d", len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("want float, got %T", v)
	}
}
