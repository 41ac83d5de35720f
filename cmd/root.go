// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package cmd wires the armbind command line surface.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/azure/armbind/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	prevDir := ""
	opts := &internal.GlobalCommandOptions{}

	cmd := &cobra.Command{
		Use:   "armbind",
		Short: "Bind parameter values to ARM deployment templates",
		Long: heredoc.Doc(`
			armbind validates parameter values against an Azure Resource Manager deployment
			template, evaluates the template's bracketed expressions, and produces the fully
			resolved resource list a deployment request carries.

			Typical usage:

				$ armbind bind --template azuredeploy.json --parameters azuredeploy.parameters.json
				$ armbind validate --template azuredeploy.json
				$ armbind params --template azuredeploy.json -o table

			armbind never contacts Azure; it only prepares and checks the request body.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Cwd != "" {
				current, err := os.Getwd()
				if err != nil {
					return err
				}

				prevDir = current

				if err := os.Chdir(opts.Cwd); err != nil {
					return fmt.Errorf("failed to change directory to %s: %w", opts.Cwd, err)
				}
			}

			log.SetFlags(log.LstdFlags | log.Lshortfile)
			if !opts.EnableDebugLogging {
				log.SetOutput(io.Discard)
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if prevDir != "" {
				return os.Chdir(prevDir)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Cwd, "cwd", "", "Sets the current working directory.")
	cmd.PersistentFlags().BoolVar(
		&opts.EnableDebugLogging, "debug", false, "Enables debugging and diagnostics logging.")
	cmd.PersistentFlags().BoolVar(
		&opts.NoPrompt, "no-prompt", false, "Accepts the default value instead of prompting, or fails if there is none.")

	cmd.AddCommand(
		newBindCmd(opts),
		newValidateCmd(opts),
		newParamsCmd(opts),
		newVersionCmd(),
	)

	return cmd
}
