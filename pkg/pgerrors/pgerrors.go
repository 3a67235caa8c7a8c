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

// Package pgerrors defines the typed error kinds the engine raises back
// to its host, per the error surface in the engine design.
package pgerrors

import "fmt"

// Kind classifies why a call failed.
type Kind int

const (
	KindConfiguration Kind = iota
	KindSplit
	KindConnection
	KindProtocol
	KindRemote
	KindTimeout
	KindCancellation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindSplit:
		return "split"
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindRemote:
		return "remote"
	case KindTimeout:
		return "timeout"
	case KindCancellation:
		return "cancellation"
	default:
		return "unknown"
	}
}

// Error is the typed error the engine raises to its host. The
// connection and execution paths (pkg/wire, engine.Conn,
// engine.Executor) return one of these; tagging, split planning,
// parameter binding and the config/metadata loaders return plain
// wrapped errors. The host decides what, if anything, to surface to the
// end caller.
type Error struct {
	Kind     Kind
	Function string // currently-executing function, when known
	Cluster  string
	Cause    error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("pgshard: %s", e.Kind)
	if e.Function != "" {
		prefix += fmt.Sprintf(" (function %s)", e.Function)
	}
	if e.Cause == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind, wrapping cause.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf builds an Error of the given kind from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// WithFunction returns a copy of e tagged with the originating function
// name, matching the remote-error surfacing rule in the error design
// ("tagged with the originating function identity").
func (e *Error) WithFunction(name string) *Error {
	cp := *e
	cp.Function = name
	return &cp
}

// WithCluster returns a copy of e tagged with the cluster name.
func (e *Error) WithCluster(name string) *Error {
	cp := *e
	cp.Cluster = name
	return &cp
}

// Is reports whether err is a pgshard Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if pe, ok := err.(*Error); ok {
			e = pe
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
