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

package cluster

import (
	"fmt"
	"strings"
	"sync"
)

// Connection identifies one physical database target by its libpq
// connstr. Several partition slots may point at the same Connection
// when their connstrs are identical; the engine's connection pool is
// keyed by this value, never by partition index.
type Connection struct {
	Connstr string
}

// Cluster is the partition topology and configuration snapshot for one
// named cluster, the Go equivalent of ProxyCluster stripped of the
// runtime execution fields (those live on engine.Conn, one per actual
// physical connection driving a single call).
type Cluster struct {
	Name    string
	Version int
	Config  Config

	// PartCount is the number of logical partitions and must be a
	// power of two; PartMask is PartCount-1, used to fold a hash
	// result into a partition index.
	PartCount int
	PartMask  int

	// PartMap has exactly PartCount entries, each pointing at one of
	// ConnList's Connections. Multiple slots may share a pointer.
	PartMap []*Connection

	// ConnList holds one Connection per distinct connstr referenced by
	// PartMap, in the order partitions first introduced them.
	ConnList []*Connection

	// NeedsReload is set by a metadata collaborator (filemeta/etcdmeta/
	// sqlmed) when the partition list should be refreshed before the
	// next call, mirroring the original's syscache-invalidation flag.
	NeedsReload bool

	mu   sync.Mutex
	busy bool
}

// TryAcquire marks the cluster busy for the duration of one call,
// mirroring ProxyCluster.busy: PL/Proxy functions for the same cluster
// cannot run concurrently on a single backend, and this module
// preserves that one-call-at-a-time contract per Cluster value.
func (c *Cluster) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

// Release clears the busy flag. Callers must defer Release immediately
// after a successful TryAcquire.
func (c *Cluster) Release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// NewCluster builds a Cluster from an ordered list of per-partition
// connstrs, deduplicating repeats into a shared ConnList the way
// prepare_and_tag_partitions' connection cache does.
func NewCluster(name string, cfg Config, partConnstrs []string) (*Cluster, error) {
	n := len(partConnstrs)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("cluster %q: partition count %d is not a power of two", name, n)
	}

	cl := &Cluster{
		Name:      name,
		Config:    cfg,
		PartCount: n,
		PartMask:  n - 1,
		PartMap:   make([]*Connection, n),
	}

	byConnstr := make(map[string]*Connection, n)
	for i, raw := range partConnstrs {
		cs := withDefaultUser(raw, cfg.DefaultUser)
		conn, ok := byConnstr[cs]
		if !ok {
			conn = &Connection{Connstr: cs}
			byConnstr[cs] = conn
			cl.ConnList = append(cl.ConnList, conn)
		}
		cl.PartMap[i] = conn
	}

	return cl, nil
}

// withDefaultUser appends "user=<defaultUser>" to connstr when it
// carries no user parameter of its own, per the partition metadata
// rule that a cluster-wide default_user backfills a connect string
// that never named one.
func withDefaultUser(connstr, defaultUser string) string {
	if defaultUser == "" {
		return connstr
	}
	for _, field := range strings.Fields(connstr) {
		if strings.HasPrefix(field, "user=") {
			return connstr
		}
	}
	return connstr + " user=" + defaultUser
}

// Partition returns the Connection responsible for partition index p,
// per hash & part_mask.
func (c *Cluster) Partition(p int) *Connection {
	return c.PartMap[p&c.PartMask]
}
