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

// Package etcdmeta is the distributed-metadata alternative to filemeta:
// a cluster's partition list and config live under an etcd key prefix
// shared by every process running this module, so a fleet of hosts
// picks up a partition-list change together instead of each one
// polling its own local file.
package etcdmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/metadata/filemeta"
)

// Store watches one cluster's definition under <prefix>/<name> in
// etcd, republishing a fresh *cluster.Cluster on every change.
type Store struct {
	name   string
	key    string
	cli    *clientv3.Client
	logger *slog.Logger

	mu      sync.RWMutex
	current *cluster.Cluster

	cancel context.CancelFunc
}

// Open connects to the given etcd endpoints and starts watching
// <prefix>/<name>. The key's value is the same JSON shape filemeta
// uses on disk, so the two collaborators are interchangeable from a
// host's point of view.
func Open(ctx context.Context, name, prefix string, endpoints []string, dialTimeout time.Duration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("etcdmeta: connect: %w", err)
	}

	s := &Store{name: name, key: prefix + "/" + name, cli: cli, logger: logger}

	getCtx, cancelGet := context.WithTimeout(ctx, dialTimeout)
	defer cancelGet()
	resp, err := cli.Get(getCtx, s.key)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("etcdmeta: initial get %s: %w", s.key, err)
	}
	if len(resp.Kvs) == 0 {
		cli.Close()
		return nil, fmt.Errorf("etcdmeta: no definition found at %s", s.key)
	}
	if err := s.apply(resp.Kvs[0].Value, 0); err != nil {
		cli.Close()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.watch(watchCtx)

	return s, nil
}

func (s *Store) watch(ctx context.Context) {
	version := 0
	for resp := range s.cli.Watch(ctx, s.key) {
		for _, ev := range resp.Events {
			if ev.Type != clientv3.EventTypePut {
				continue
			}
			version++
			if err := s.apply(ev.Kv.Value, version); err != nil {
				s.logger.Error("etcdmeta: reload failed", "cluster", s.name, "error", err)
				continue
			}
			s.logger.Info("etcdmeta: cluster definition reloaded", "cluster", s.name, "version", version)
		}
	}
}

func (s *Store) apply(data []byte, version int) error {
	var def filemeta.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("etcdmeta: parse %s: %w", s.key, err)
	}

	cl, err := cluster.NewCluster(s.name, def.Config, def.Partitions)
	if err != nil {
		return err
	}
	cl.Version = version

	s.mu.Lock()
	s.current = cl
	s.mu.Unlock()
	return nil
}

// Current returns the most recently loaded Cluster.
func (s *Store) Current() *cluster.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Close stops watching and disconnects from etcd.
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.cli.Close()
}
