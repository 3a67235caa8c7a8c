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

	"github.com/spf13/cobra"

	"github.com/pgshard/pgshard/pkg/engine"
	"github.com/pgshard/pgshard/pkg/metadata/filemeta"
)

func newExplainCommand() *cobra.Command {
	var (
		file         string
		mode         string
		exactNr      int
		hashRows     []int
		setReturning bool
	)

	cmd := &cobra.Command{
		Use:   "explain <name>",
		Short: "Show which partitions a call would run on without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			runMode, err := parseRunMode(mode)
			if err != nil {
				return err
			}

			w, err := filemeta.New(name, file, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			tagger := &engine.Tagger{Cluster: w.Current()}
			conns, err := selectConnections(tagger, runMode, exactNr, hashRows, setReturning)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "mode=%s selects %d connection(s):\n", mode, len(conns))
			for _, conn := range conns {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", conn.Connstr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the cluster's JSON definition file")
	cmd.MarkFlagRequired("file")
	registerSelectionFlags(cmd.Flags(), &mode, &exactNr, &hashRows, &setReturning)
	return cmd
}
