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

// Package filemeta watches a cluster's partition-list file on disk and
// bumps the cluster's version whenever it changes, the Go equivalent
// of PL/Proxy's syscache invalidation callback for a SQL/MED-defined
// cluster — except the thing invalidated is a plain file instead of a
// catalog row.
package filemeta

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pgshard/pgshard/pkg/cluster"
)

// Definition is the on-disk shape of one cluster's partition list.
type Definition struct {
	Partitions []string       `json:"partitions"`
	Config     cluster.Config `json:"config"`
}

// Watcher reloads a cluster's Definition from path whenever the file
// changes and republishes a fresh *cluster.Cluster through Current.
type Watcher struct {
	name   string
	path   string
	logger *slog.Logger

	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	current *cluster.Cluster
}

// New loads path once and starts watching it for further changes.
func New(name, path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{name: name, path: path, logger: logger}
	if err := w.reload(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filemeta: start watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("filemeta: watch %s: %w", path, err)
	}
	w.watcher = fw

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				w.logger.Error("filemeta: reload failed", "cluster", w.name, "path", w.path, "error", err)
				continue
			}
			w.logger.Info("filemeta: cluster definition reloaded", "cluster", w.name, "version", w.Current().Version)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("filemeta: watch error", "cluster", w.name, "error", err)
		}
	}
}

func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("filemeta: read %s: %w", w.path, err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("filemeta: parse %s: %w", w.path, err)
	}

	cl, err := cluster.NewCluster(w.name, def.Config, def.Partitions)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.current != nil {
		cl.Version = w.current.Version + 1
	}
	w.current = cl
	w.mu.Unlock()
	return nil
}

// Current returns the most recently loaded Cluster.
func (w *Watcher) Current() *cluster.Cluster {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching.
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
