// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/azure/armbind/internal"
	"github.com/azure/armbind/pkg/binding"
	"github.com/azure/armbind/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newValidateCmd(global *internal.GlobalCommandOptions) *cobra.Command {
	var templatePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a template for errors without binding parameter values",
		Long: heredoc.Doc(`
			Validate parses the template, checks it against the deployment template schema and
			reports every static problem it finds: malformed parameter declarations, expressions
			that do not parse, references to undeclared parameters or variables, unknown template
			functions and cycles between variables.

			All problems are reported in one pass rather than stopping at the first.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(templatePath)
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}

			template, err := binding.ParseTemplate(raw)
			if err != nil {
				return err
			}

			if err := binding.Validate(template); err != nil {
				problems := multierr.Errors(err)
				fmt.Fprintln(cmd.ErrOrStderr(), output.WithErrorFormat(
					"%s has %d problem(s):", templatePath, len(problems)))
				for _, problem := range problems {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", problem)
				}

				return fmt.Errorf("template validation failed")
			}

			fmt.Fprintln(cmd.OutOrStdout(), output.WithSuccessFormat("%s is valid.", templatePath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "f", "azuredeploy.json", "Path of the template to validate.")

	return cmd
}
