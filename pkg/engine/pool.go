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
	"sync"
	"time"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/pgerrors"
)

// Pool keeps at most one live Conn per physical connstr across calls,
// the Go equivalent of ProxyCluster.conn_list surviving between
// plproxy_exec invocations for connection reuse. It is grounded on the
// teacher's PoolerConnection lifecycle: created once, checked and
// redialed lazily, torn down explicitly.
type Pool struct {
	mu      sync.Mutex
	conns   map[*cluster.Connection]*Conn
	cluster *cluster.Cluster

	LocalServerVersion int
	Notices            pgerrors.NoticeSink
	Logger             *slog.Logger
}

// NewPool creates an empty pool for cl. LocalServerVersion should be
// this host's own server_version_num, used for the same-branch check
// against each partition it connects to.
func NewPool(cl *cluster.Cluster, localServerVersion int, notices pgerrors.NoticeSink, logger *slog.Logger) *Pool {
	return &Pool{
		conns:               make(map[*cluster.Connection]*Conn),
		cluster:             cl,
		LocalServerVersion:  localServerVersion,
		Notices:             notices,
		Logger:              logger,
	}
}

// Get returns a ready Conn for target, redialing if none is cached yet,
// the cached one has outlived connection_lifetime, or it fails a
// liveness ping (check_old_conn's two staleness checks).
func (p *Pool) Get(ctx context.Context, target *cluster.Connection) (*Conn, error) {
	p.mu.Lock()
	existing := p.conns[target]
	p.mu.Unlock()

	now := time.Now()
	if existing != nil && !existing.Stale(now) && existing.Ping(ctx) == nil {
		return existing, nil
	}
	if existing != nil {
		existing.Close()
	}

	conn, err := Dial(ctx, p.cluster, target, p.LocalServerVersion, p.Notices, p.Logger)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.conns[target] = conn
	p.mu.Unlock()
	return conn, nil
}

// Cluster returns the cluster this pool serves.
func (p *Pool) Cluster() *cluster.Cluster { return p.cluster }

// Drop removes a failed connection from the cache, forcing the next
// Get for that target to redial.
func (p *Pool) Drop(target *cluster.Connection) {
	p.mu.Lock()
	conn := p.conns[target]
	delete(p.conns, target)
	p.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Close tears down every cached connection, e.g. when a host is
// shutting down or a cluster's partition list was reloaded out from
// under it.
func (p *Pool) Close() {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[*cluster.Connection]*Conn)
	p.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
