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
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ArgRef describes one function argument available to a query template.
type ArgRef struct {
	Name string
	Type string // SQL type name, used only when AddTypes is requested
}

// QueryBuilder turns a SQL template containing bare references to function
// argument names into a Query with $1..$n placeholders and an
// ArgLookup, the Go-idiomatic replacement for query.c's hand-rolled
// lexer-driven plproxy_query_add_ident: a real PostgreSQL tokenizer
// finds the identifier boundaries, and this package decides which of
// them name a function argument.
type QueryBuilder struct {
	Args      []ArgRef
	AddTypes  bool // append "::type" after each substituted reference
}

// Build tokenizes body with the PostgreSQL scanner and replaces every
// bare identifier matching an argument name with a positional
// placeholder, reusing the same placeholder for repeated references to
// the same argument (mirroring plproxy_query_add_ident's sql_idx reuse).
func (b *QueryBuilder) Build(body string) (*Query, error) {
	scan, err := pg_query.Scan(body)
	if err != nil {
		return nil, fmt.Errorf("queryspec: scan query: %w", err)
	}

	byName := make(map[string]int, len(b.Args))
	for i, a := range b.Args {
		byName[strings.ToLower(a.Name)] = i
	}

	var out strings.Builder
	var argLookup []int
	seen := make(map[int]int) // function arg index -> local placeholder index (0-based)

	cursor := int32(0)
	for _, tok := range scan.GetTokens() {
		if tok.GetToken() != pg_query.Token_IDENT || tok.GetKeywordKind() != pg_query.KeywordKind_NO_KEYWORD {
			continue
		}
		start, end := tok.GetStart(), tok.GetEnd()
		ident := body[start:end]
		fnIdx, ok := byName[strings.ToLower(trimIdent(ident))]
		if !ok {
			continue
		}

		out.WriteString(body[cursor:start])

		localIdx, ok := seen[fnIdx]
		if !ok {
			localIdx = len(argLookup)
			argLookup = append(argLookup, fnIdx)
			seen[fnIdx] = localIdx
		}

		fmt.Fprintf(&out, "$%d", localIdx+1)
		if b.AddTypes && b.Args[fnIdx].Type != "" {
			fmt.Fprintf(&out, "::%s", b.Args[fnIdx].Type)
		}

		cursor = end
	}
	out.WriteString(body[cursor:])

	return &Query{SQL: out.String(), ArgLookup: argLookup}, nil
}

// trimIdent strips the double-quotes PostgreSQL uses around
// case-sensitive identifiers, so "myArg" and myarg both resolve against
// the same lowercase key when the quoting was only there to preserve
// case that our own argument names already carry verbatim.
func trimIdent(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// StandardCall renders "select <cols> from fn($1, $2, ...)" for a
// function with the given name and positional argument count, the
// template used when no explicit remote query body was supplied
// (query.c's plproxy_standard_query).
func StandardCall(fnName string, args []ArgRef, retExpr string, addTypes bool) *Query {
	var sql strings.Builder
	sql.WriteString("select ")
	sql.WriteString(retExpr)
	sql.WriteString(" from ")
	sql.WriteString(fnName)
	sql.WriteString("(")

	lookup := make([]int, len(args))
	for i, a := range args {
		if i > 0 {
			sql.WriteString(", ")
		}
		fmt.Fprintf(&sql, "$%d", i+1)
		if addTypes && a.Type != "" {
			fmt.Fprintf(&sql, "::%s", a.Type)
		}
		lookup[i] = i
	}
	sql.WriteString(")")

	return &Query{SQL: sql.String(), ArgLookup: lookup}
}
