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
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/pgerrors"
	"github.com/pgshard/pgshard/pkg/wire"
)

// Conn drives one physical connection through login, optional tuning
// and a single query, the Go equivalent of ProxyConnection plus the
// login/tuning portion of handle_conn — except everything below runs
// to completion on its own goroutine rather than being resumed piece
// by piece across poll_conns iterations.
type Conn struct {
	Cluster *cluster.Cluster
	Target  *cluster.Connection

	wire *wire.Conn
	logger *slog.Logger

	state       atomic.Int32
	connectTime time.Time
	queryTime   time.Time
	sameVer     bool
}

// Dial logs in to Target and applies the one-time tuning fixups
// (client_encoding, same-branch detection) that the original ran on
// every freshly established connection before it is handed back to the
// pool for the next call.
func Dial(ctx context.Context, cl *cluster.Cluster, target *cluster.Connection, localServerVersion int, notices pgerrors.NoticeSink, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Conn{Cluster: cl, Target: target, logger: logger}
	c.state.Store(int32(StateConnectWrite))

	w, err := wire.Dial(ctx, target.Connstr, wire.DialOptions{
		ConnectTimeout:    cl.Config.ConnectTimeout,
		Notices:           notices,
		Logger:            logger,
		KeepaliveIdle:     cl.Config.KeepaliveIdle,
		KeepaliveInterval: cl.Config.KeepaliveInterval,
		KeepaliveCount:    cl.Config.KeepaliveCount,
	})
	if err != nil {
		c.state.Store(int32(StateNone))
		return nil, err
	}
	c.wire = w
	c.connectTime = time.Now()
	c.sameVer = wire.SameBranch(w.ServerVersion(), localServerVersion)
	c.state.Store(int32(StateReady))

	if err := c.tune(ctx, cl); err != nil {
		w.Close()
		return nil, err
	}

	logger.DebugContext(ctx, "connection ready", "cluster", cl.Name, "connstr", target.Connstr, "same_version_branch", c.sameVer)
	return c, nil
}

// tune applies the cluster's client_encoding setting, the Go equivalent
// of tune_connection. A freshly dialed backend is expected to accept the
// setting on the first try; a transient failure is retried once, but a
// second divergence is treated as fatal rather than retried forever,
// matching tune_connection's "tuning failed twice" abort.
func (c *Conn) tune(ctx context.Context, cl *cluster.Cluster) error {
	if cl.Config.ClientEncoding == "" {
		return nil
	}
	tuneSQL := fmt.Sprintf("set client_encoding = %s", pq.QuoteLiteral(cl.Config.ClientEncoding))

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if _, err := c.wire.Query(ctx, tuneSQL, nil); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return pgerrors.New(pgerrors.KindConnection, lastErr).WithFunction("tune_connection").WithCluster(cl.Name)
}

// State reports the connection's current lifecycle state.
func (c *Conn) State() ConnState { return ConnState(c.state.Load()) }

// SameVersionBranch reports whether the remote backend shares this
// host's major.minor release, the condition send_query used to decide
// whether binary result formats were safe to request.
func (c *Conn) SameVersionBranch() bool { return c.sameVer }

// Stale reports whether the connection has outlived the cluster's
// connection_lifetime and should be dropped instead of reused
// (check_old_conn's lifetime check).
func (c *Conn) Stale(now time.Time) bool {
	lt := c.Cluster.Config.ConnectionLifetime
	return lt > 0 && now.Sub(c.connectTime) >= lt
}

// Ping verifies the connection is still healthy, the other leg of
// check_old_conn's staleness check: a cached connection can outlive an
// idle-socket close or backend restart without tripping the lifetime
// check above, so the pool pings it before handing it back out.
func (c *Conn) Ping(ctx context.Context) error {
	return c.wire.Ping(ctx)
}

// Execute runs one query to completion, applying the cluster's
// query_timeout, and returns the full drained result set — the
// equivalent of send_query through handle_conn's C_DONE transition,
// minus the incremental poll(2) steps in between.
func (c *Conn) Execute(ctx context.Context, query string, args []any) (*wire.Rows, error) {
	c.state.Store(int32(StateQueryWrite))
	c.queryTime = time.Now()

	if qt := c.Cluster.Config.QueryTimeout; qt > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, qt)
		defer cancel()
	}

	c.state.Store(int32(StateQueryRead))
	rows, err := c.wire.Query(ctx, query, args)
	c.state.Store(int32(StateDone))
	return rows, err
}

// Cancel asks the remote backend to abandon whatever this connection is
// currently running, used by the executor's best-effort cancellation
// fan-out when one partition's failure or the caller's own context
// cancellation aborts an in-flight call.
func (c *Conn) Cancel(ctx context.Context) error {
	return c.wire.Cancel(ctx)
}

// Close releases the physical connection.
func (c *Conn) Close() error {
	c.state.Store(int32(StateNone))
	return c.wire.Close()
}
