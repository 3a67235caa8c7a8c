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

	"github.com/pgshard/pgshard/pkg/metadata/filemeta"
)

func newClustersCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "clusters <name>",
		Short: "Show a cluster's partition topology and configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			w, err := filemeta.New(name, file, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			cl := w.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "cluster %q, version %d, %d partitions (%d distinct connections)\n",
				cl.Name, cl.Version, cl.PartCount, len(cl.ConnList))
			for i, conn := range cl.PartMap {
				fmt.Fprintf(cmd.OutOrStdout(), "  partition %d -> %s\n", i, conn.Connstr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connect_timeout=%s query_timeout=%s connection_lifetime=%s disable_binary=%t default_user=%q\n",
				cl.Config.ConnectTimeout, cl.Config.QueryTimeout, cl.Config.ConnectionLifetime, cl.Config.DisableBinary, cl.Config.DefaultUser)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the cluster's JSON definition file")
	cmd.MarkFlagRequired("file")
	return cmd
}
