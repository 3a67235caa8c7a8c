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

package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/pgerrors"
	"github.com/pgshard/pgshard/pkg/wire"
)

// PartitionResult is one participating connection's outcome.
type PartitionResult struct {
	Connection *cluster.Connection
	Rows       *wire.Rows
	Err        error
}

// Executor runs one call out across a set of participating connections
// concurrently and gathers every result, the Go equivalent of
// remote_execute driven by poll_conns — except instead of a single
// goroutine multiplexing nonblocking I/O across every connection in
// turn, each participant gets its own goroutine blocking on its own
// I/O, coordinated by errgroup so the first failure cancels the rest.
type Executor struct {
	Pool   *Pool
	Logger *slog.Logger
}

// NewExecutor builds an Executor over pool.
func NewExecutor(pool *Pool, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{Pool: pool, Logger: logger}
}

// Run executes query against every participant, calling argsFor once
// per participant to get that connection's positional parameter list
// (already bound by a Binder). It enforces the cluster's busy flag:
// only one call may be in flight against a given Cluster value at a
// time, matching ProxyCluster.busy's "no nested plproxy calls on the
// same cluster" invariant.
func (e *Executor) Run(ctx context.Context, query string, participants []*cluster.Connection, argsFor func(*cluster.Connection) []any) ([]PartitionResult, error) {
	cl := e.Pool.Cluster()
	if !cl.TryAcquire() {
		return nil, pgerrors.Newf(pgerrors.KindConnection, "cluster %q is already executing a call", cl.Name).WithCluster(cl.Name)
	}
	defer cl.Release()

	g, gctx := errgroup.WithContext(ctx)
	results := make([]PartitionResult, len(participants))
	conns := make([]*Conn, len(participants))

	for i, target := range participants {
		i, target := i, target
		g.Go(func() error {
			conn, err := e.Pool.Get(gctx, target)
			if err != nil {
				results[i] = PartitionResult{Connection: target, Err: err}
				return err
			}
			conns[i] = conn

			rows, err := conn.Execute(gctx, query, argsFor(target))
			results[i] = PartitionResult{Connection: target, Rows: rows, Err: err}
			if err != nil {
				e.Pool.Drop(target)
				return err
			}
			return nil
		})
	}

	runErr := g.Wait()
	if runErr != nil {
		e.cancelRemaining(ctx, conns)
	}
	if err := validateResultPairing(results); err != nil {
		return results, err
	}
	return results, runErr
}

// validateResultPairing enforces that every participant produced either
// a result set or an error, never both and never neither, the literal
// form of remote_execute's final-loop sanity check on run_tag/res
// pairing. A violation means this package has a bug, not that the
// remote call itself failed.
func validateResultPairing(results []PartitionResult) error {
	for _, r := range results {
		hasRows := r.Rows != nil
		hasErr := r.Err != nil
		if hasRows == hasErr {
			return pgerrors.Newf(pgerrors.KindProtocol, "inconsistent result pairing for %s: rows=%t err=%t", r.Connection.Connstr, hasRows, hasErr)
		}
	}
	return nil
}

// cancelRemaining issues a best-effort remote cancel against every
// connection still mid-query, the Go equivalent of remote_cancel's
// PQcancel fan-out once plproxy_exec's PG_CATCH block decides the call
// as a whole has failed.
func (e *Executor) cancelRemaining(parent context.Context, conns []*Conn) {
	for _, conn := range conns {
		if conn == nil {
			continue
		}
		switch conn.State() {
		case StateQueryWrite, StateQueryRead:
		default:
			continue
		}
		cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
		if err := conn.Cancel(cancelCtx); err != nil {
			e.Logger.WarnContext(parent, "remote cancel failed", "connstr", conn.Target.Connstr, "error", err)
		}
		cancel()
	}
}
