// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/azure/armbind/internal"
	"github.com/azure/armbind/pkg/binding"
	"github.com/azure/armbind/pkg/output"
	"github.com/spf13/cobra"
)

func newParamsCmd(global *internal.GlobalCommandOptions) *cobra.Command {
	var templatePath string

	cmd := &cobra.Command{
		Use:   "params",
		Short: "List the parameters a template declares",
		Long: heredoc.Doc(`
			Params prints each parameter the template declares along with its type, default
			value, allowed values and description, so you can see what a parameter file for
			the template needs to provide.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(templatePath)
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}

			template, err := binding.ParseTemplate(raw)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(template.Parameters))
			for name := range template.Parameters {
				names = append(names, name)
			}
			sort.Strings(names)

			if formatter.Kind() == output.JsonFormat {
				declarations := make(map[string]any, len(names))
				for name, def := range template.Parameters {
					declarations[name] = def
				}
				return formatter.Format(declarations, cmd.OutOrStdout(), nil)
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				def := template.Parameters[name]

				defaultValue := ""
				if def.DefaultValue != nil {
					defaultValue = compactJSON(def.DefaultValue)
					if def.Secure() {
						defaultValue = "<redacted>"
					}
				}

				allowed := ""
				if def.AllowedValues != nil {
					allowed = compactJSON(*def.AllowedValues)
				}

				description, _ := def.Description()
				rows = append(rows, []string{name, def.Type, defaultValue, allowed, description})
			}

			return formatter.Format(rows, cmd.OutOrStdout(), output.TableFormatterOptions{
				Columns: []string{"NAME", "TYPE", "DEFAULT", "ALLOWED", "DESCRIPTION"},
			})
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "f", "azuredeploy.json", "Path of the template to inspect.")
	output.AddOutputParam(cmd, []output.Format{output.TableFormat, output.JsonFormat}, output.TableFormat)

	return cmd
}

func compactJSON(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(encoded)
}
