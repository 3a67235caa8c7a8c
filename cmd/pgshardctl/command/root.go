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

package command

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pgshard/pgshard/pkg/log"
)

var (
	logLevel  string
	logFormat string
)

// Root builds the pgshardctl command tree.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pgshardctl",
		Short: "Inspect and exercise pgshard cluster definitions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(log.New(log.Options{Level: logLevel, Format: logFormat}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "json or text")

	cmd.AddCommand(newClustersCommand())
	cmd.AddCommand(newExplainCommand())
	cmd.AddCommand(newRunCommand())
	return cmd
}
