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

// Package codec defines the type send/recv boundary that the engine
// consumes but never implements on its own behalf — the spec treats
// type I/O codecs as an external collaborator (the host's type system
// knows how to encode/decode its own scalar and composite types). This
// package supplies the interface plus a usable default registry for the
// common scalar types, built on lib/pq's oid catalog.
package codec

import (
	"fmt"

	"github.com/lib/pq/oid"
)

// Codec knows how to move one Postgres type between host-native values
// and the wire representation used for a remote call's parameters and
// results. A host embedding the engine may supply its own Codec for a
// type instead of the defaults in Registry.
type Codec interface {
	OID() oid.Oid
	Name() string

	// HasSend reports whether EncodeBinary is implemented (used when
	// sending this type as a query parameter).
	HasSend() bool

	// HasRecv reports whether this type may be received in binary
	// format and decoded with DecodeBinary as part of a query result.
	HasRecv() bool

	EncodeText(v any) (string, error)
	EncodeBinary(v any) ([]byte, error)
	DecodeText(s string) (any, error)
	DecodeBinary(b []byte) (any, error)

	// ElemOID returns the element type OID if this Codec describes an
	// array type, else 0.
	ElemOID() oid.Oid
}

// Registry resolves a Codec by OID. The engine never hard-codes a set of
// supported types; it always goes through a Registry so hosts can extend
// or override type support.
type Registry interface {
	Lookup(o oid.Oid) (Codec, bool)
}

// MapRegistry is the simplest Registry: a flat map of OID to Codec.
type MapRegistry map[oid.Oid]Codec

func (m MapRegistry) Lookup(o oid.Oid) (Codec, bool) {
	c, ok := m[o]
	return c, ok
}

// Default returns a Registry covering the common scalar types, suitable
// for hosts that don't need anything exotic (composite/array codecs are
// expected to be supplied by the host, since they are specific to its
// own type system).
func Default() Registry {
	reg := MapRegistry{}
	for _, c := range []Codec{
		int2Codec{}, int4Codec{}, int8Codec{},
		textCodec{}, boolCodec{},
		float4Codec{}, float8Codec{},
	} {
		reg[c.OID()] = c
	}
	return reg
}

// Param is a fully-encoded query parameter, in the shape libpq's
// PQsendQueryParams (and the spec's ProxyConnection.values/lengths/
// formats triple) expects: a value buffer, a format code, and whether
// the value itself is NULL.
type Param struct {
	Value  []byte
	Format int16 // 0 = text, 1 = binary
	IsNull bool
}

// EncodeParam encodes v using codec, preferring binary when allowBinary
// is true and the codec supports it. This is the Parameter Binder's
// single encoding primitive (one codec call per distinct value).
func EncodeParam(c Codec, v any, allowBinary bool) (Param, error) {
	if v == nil {
		return Param{IsNull: true}, nil
	}
	if allowBinary && c.HasSend() {
		b, err := c.EncodeBinary(v)
		if err != nil {
			return Param{}, fmt.Errorf("encode binary %s: %w", c.Name(), err)
		}
		return Param{Value: b, Format: 1}, nil
	}
	s, err := c.EncodeText(v)
	if err != nil {
		return Param{}, fmt.Errorf("encode text %s: %w", c.Name(), err)
	}
	return Param{Value: []byte(s), Format: 0}, nil
}
