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

// Package config loads per-cluster configuration snapshots from flags,
// environment variables and an optional config file, the Go-idiomatic
// replacement for plproxy.get_cluster_config()'s single SQL-function
// callback.
package config

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pgshard/pgshard/pkg/cluster"
)

// Loader binds a cluster's configuration knobs to flags/env/file,
// mirroring servenv's viper-backed flag binding but scoped to one
// cluster.Config at a time rather than a single global settings tree.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader for the given cluster name. Environment
// variables are read with the "PGSHARD_" prefix (e.g.
// PGSHARD_CONNECT_TIMEOUT). fs lets tests substitute an in-memory afero
// filesystem instead of touching disk.
func NewLoader(clusterName string, fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix("PGSHARD")
	v.AutomaticEnv()
	v.SetTypeByDefaultValue(true)

	defaults := cluster.DefaultConfig()
	v.SetDefault("connect_timeout", defaults.ConnectTimeout)
	v.SetDefault("query_timeout", defaults.QueryTimeout)
	v.SetDefault("connection_lifetime", defaults.ConnectionLifetime)
	v.SetDefault("disable_binary", defaults.DisableBinary)
	v.SetDefault("keepalive_idle", defaults.KeepaliveIdle)
	v.SetDefault("keepalive_interval", defaults.KeepaliveInterval)
	v.SetDefault("keepalive_count", defaults.KeepaliveCount)
	v.SetDefault("default_user", defaults.DefaultUser)
	v.SetDefault("client_encoding", defaults.ClientEncoding)

	return &Loader{v: v}
}

// BindFlags registers this cluster's config knobs on fs, prefixed with
// "<clusterName>-", so a host running several clusters from one
// process can still override each independently from the command line.
func (l *Loader) BindFlags(clusterName string, fs *pflag.FlagSet) error {
	prefix := clusterName + "-"
	defaults := cluster.DefaultConfig()

	fs.Duration(prefix+"connect-timeout", defaults.ConnectTimeout, "max time a partition connection attempt may take")
	fs.Duration(prefix+"query-timeout", defaults.QueryTimeout, "max time a remote query may take (0 = no limit)")
	fs.Duration(prefix+"connection-lifetime", defaults.ConnectionLifetime, "max age of a pooled partition connection before it is redialed")
	fs.Bool(prefix+"disable-binary", defaults.DisableBinary, "never use binary parameter/result formats")
	fs.String(prefix+"default-user", defaults.DefaultUser, "user to append to a partition connstr that carries none")
	fs.String(prefix+"client-encoding", defaults.ClientEncoding, "client_encoding to enforce on every partition connection")

	flagToKey := map[string]string{
		"connect-timeout":     "connect_timeout",
		"query-timeout":       "query_timeout",
		"connection-lifetime": "connection_lifetime",
		"disable-binary":      "disable_binary",
		"default-user":        "default_user",
		"client-encoding":     "client_encoding",
	}
	for flagName, key := range flagToKey {
		if err := l.v.BindPFlag(key, fs.Lookup(prefix+flagName)); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

// LoadFile merges a cluster config file (toml/yaml/json, sniffed from
// its extension by viper) into the snapshot, for hosts that keep
// per-cluster config alongside the partition list instead of only on
// the command line.
func (l *Loader) LoadFile(path string) error {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Build unmarshals the accumulated flag/env/file values into a
// cluster.Config snapshot.
func (l *Loader) Build() (cluster.Config, error) {
	var cfg cluster.Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return cluster.Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
