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

// Package sqlmed loads cluster definitions the way PL/Proxy's original
// SQL/MED clusters did: from catalog rows in a real Postgres database,
// rather than a file or an external metadata store. A foreign server
// plus its user mappings named the partitions; this package reads the
// equivalent from a plain catalog table a host maintains with
// CREATE SERVER/CREATE USER MAPPING-managed connstrs, queried through
// lib/pq/database-sql instead of SPI.
package sqlmed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/pgshard/pgshard/pkg/cluster"
)

// Loader reads cluster definitions out of a catalog database.
type Loader struct {
	db *sql.DB
}

// Open connects to the catalog database at connstr.
func Open(connstr string) (*Loader, error) {
	db, err := sql.Open("postgres", connstr)
	if err != nil {
		return nil, fmt.Errorf("sqlmed: open catalog: %w", err)
	}
	return &Loader{db: db}, nil
}

// partitionsQuery lists a cluster's partition connstrs in partition
// order, the relational analogue of walking a foreign server's options
// plus its attached user mappings.
const partitionsQuery = `
select connstr
from pgshard.cluster_partitions
where cluster_name = $1
order by partition_index
`

const configQuery = `
select connect_timeout, query_timeout, connection_lifetime, disable_binary,
       keepalive_idle, keepalive_interval, keepalive_count, default_user, client_encoding
from pgshard.cluster_config
where cluster_name = $1
`

// Load reads name's partition list and config out of the catalog and
// builds a ready-to-use *cluster.Cluster.
func (l *Loader) Load(ctx context.Context, name string) (*cluster.Cluster, error) {
	cfg, err := l.loadConfig(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, partitionsQuery, name)
	if err != nil {
		return nil, fmt.Errorf("sqlmed: query partitions for %q: %w", name, err)
	}
	defer rows.Close()

	var connstrs []string
	for rows.Next() {
		var cs string
		if err := rows.Scan(&cs); err != nil {
			return nil, fmt.Errorf("sqlmed: scan partition row: %w", err)
		}
		connstrs = append(connstrs, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlmed: read partitions for %q: %w", name, err)
	}
	if len(connstrs) == 0 {
		return nil, fmt.Errorf("sqlmed: no partitions defined for cluster %q", name)
	}

	return cluster.NewCluster(name, cfg, connstrs)
}

func (l *Loader) loadConfig(ctx context.Context, name string) (cluster.Config, error) {
	cfg := cluster.DefaultConfig()
	row := l.db.QueryRowContext(ctx, configQuery, name)
	err := row.Scan(
		&cfg.ConnectTimeout, &cfg.QueryTimeout, &cfg.ConnectionLifetime, &cfg.DisableBinary,
		&cfg.KeepaliveIdle, &cfg.KeepaliveInterval, &cfg.KeepaliveCount, &cfg.DefaultUser, &cfg.ClientEncoding,
	)
	if err == sql.ErrNoRows {
		return cluster.DefaultConfig(), nil
	}
	if err != nil {
		return cluster.Config{}, fmt.Errorf("sqlmed: query config for %q: %w", name, err)
	}
	return cfg, nil
}

// Close disconnects from the catalog database.
func (l *Loader) Close() error { return l.db.Close() }

// QuoteConnstrOption quotes a SQL/MED-style option value the way
// "CREATE SERVER ... OPTIONS (host 'x')" would, for a host building
// cluster_partitions.connstr from individual foreign-server options
// instead of a pre-assembled connstr.
func QuoteConnstrOption(value string) string {
	return pq.QuoteLiteral(value)
}
