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

// Package cluster holds the per-cluster configuration snapshot and the
// partition topology the engine fans queries out across.
package cluster

import "time"

// Config is the per-cluster configuration snapshot, the Go equivalent
// of ProxyConfig plus the connection-pool knobs the original deferred
// to libpq defaults. A Loader produces one of these per cluster; the
// engine never mutates it.
type Config struct {
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout       time.Duration `mapstructure:"query_timeout"`
	ConnectionLifetime time.Duration `mapstructure:"connection_lifetime"`
	DisableBinary      bool          `mapstructure:"disable_binary"`

	// KeepaliveIdle/KeepaliveInterval/KeepaliveCount mirror libpq's
	// keepalives_idle/keepalives_interval/keepalives_count connection
	// parameters, surfaced here so a host can tune them per cluster
	// instead of per connstr.
	KeepaliveIdle     time.Duration `mapstructure:"keepalive_idle"`
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`
	KeepaliveCount    int           `mapstructure:"keepalive_count"`

	// DefaultUser is appended to a partition's connstr when it carries
	// no user= parameter of its own.
	DefaultUser string `mapstructure:"default_user"`

	// ClientEncoding, when set, is enforced on every freshly dialed
	// connection via "set client_encoding", the Go equivalent of
	// tune_connection's one-time encoding-mismatch fixup.
	ClientEncoding string `mapstructure:"client_encoding"`
}

// DefaultConfig returns the defaults used when a cluster sets nothing:
// a 15-second connect timeout, no query timeout, a 15-minute
// connection lifetime, binary formats allowed, and keepalive settings
// left to libpq.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:     15 * time.Second,
		QueryTimeout:       0,
		ConnectionLifetime: 15 * time.Minute,
		DisableBinary:      false,
		KeepaliveIdle:      0,
		KeepaliveInterval:  0,
		KeepaliveCount:     0,
	}
}
