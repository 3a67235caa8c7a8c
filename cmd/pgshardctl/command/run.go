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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pgshard/pgshard/pkg/cluster"
	"github.com/pgshard/pgshard/pkg/engine"
	"github.com/pgshard/pgshard/pkg/metadata/filemeta"
)

func newRunCommand() *cobra.Command {
	var (
		file         string
		mode         string
		exactNr      int
		hashRows     []int
		setReturning bool
		query        string
		rawArgs      []string
	)

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run one ad hoc query against a cluster's participating partitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			runMode, err := parseRunMode(mode)
			if err != nil {
				return err
			}
			if query == "" {
				return fmt.Errorf("--query is required")
			}

			w, err := filemeta.New(name, file, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			cl := w.Current()
			tagger := &engine.Tagger{Cluster: cl}
			participants, err := selectConnections(tagger, runMode, exactNr, hashRows, setReturning)
			if err != nil {
				return err
			}
			if len(participants) == 0 {
				return fmt.Errorf("no partitions selected")
			}

			callArgs := make([]any, len(rawArgs))
			for i, a := range rawArgs {
				callArgs[i] = a
			}

			pool := engine.NewPool(cl, 0, nil, slog.Default())
			defer pool.Close()
			executor := engine.NewExecutor(pool, slog.Default())

			results, err := executor.Run(cmd.Context(), query, participants, func(*cluster.Connection) []any {
				return callArgs
			})
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "-- %s --\n", r.Connection.Connstr)
				if r.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  error: %v\n", r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  columns: %v\n", r.Rows.Columns)
				for _, row := range r.Rows.Values {
					fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", row)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the cluster's JSON definition file")
	cmd.Flags().StringVar(&query, "query", "", "query to run on every participating partition, using $1, $2, ... placeholders")
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "positional query argument, repeatable, always bound as text")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("query")
	registerSelectionFlags(cmd.Flags(), &mode, &exactNr, &hashRows, &setReturning)
	return cmd
}
