// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"

	"github.com/azure/armbind/internal"
	"github.com/azure/armbind/pkg/output"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of armbind",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				return formatter.Format(map[string]string{
					"version": internal.GetVersionNumber(),
				}, cmd.OutOrStdout(), nil)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "armbind version %s\n", internal.Version)
			return nil
		},
	}

	output.AddOutputParam(cmd, []output.Format{output.JsonFormat, output.NoneFormat}, output.NoneFormat)

	return cmd
}
