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

// PgDiagnostic is a PostgreSQL diagnostic message (error or notice).
// The wire protocol uses the same shape for ErrorResponse ('E') and
// NoticeResponse ('N'), differentiated only by MessageType.
type PgDiagnostic struct {
	MessageType byte // 'E' or 'N'
	Severity    string
	Code        string // SQLSTATE
	Message     string
	Detail      string
	Hint        string
}

// IsFatal reports whether the backend severity means the session is
// terminated (FATAL) or the whole cluster is (PANIC).
func (d *PgDiagnostic) IsFatal() bool {
	return d.Severity == "FATAL" || d.Severity == "PANIC"
}

func (d *PgDiagnostic) Error() string {
	if d == nil {
		return "ERROR: unknown error"
	}
	return d.Severity + ": " + d.Message
}

// Notice is a non-error diagnostic forwarded to the host, tagged with
// the function that was executing when the backend sent it (the
// cyclic-reference-free replacement for PL/Proxy's notice receiver
// closing over the current ProxyFunction).
type Notice struct {
	Function   string
	Cluster    string
	Connstr    string
	Diagnostic *PgDiagnostic
}

// NoticeSink receives forwarded backend notices. The host supplies one;
// the engine never decides how notices are surfaced, only that they are
// non-fatal (see the error-handling design's propagation policy).
type NoticeSink func(Notice)
