// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/azure/armbind/internal"
	"github.com/azure/armbind/pkg/azapi"
	"github.com/azure/armbind/pkg/azure"
	"github.com/azure/armbind/pkg/binding"
	"github.com/azure/armbind/pkg/input"
	"github.com/azure/armbind/pkg/output"
	"github.com/azure/armbind/pkg/prompt"
	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// zeroSubscriptionID stands in for the deployment subscription when none is provided; resource
// ids produced by resourceId() then carry a recognizably placeholder subscription.
const zeroSubscriptionID = "00000000-0000-0000-0000-000000000000"

type bindFlags struct {
	template       string
	parameters     string
	envFiles       []string
	set            []string
	subscription   string
	resourceGroup  string
	location       string
	deploymentName string
	request        bool
	global         *internal.GlobalCommandOptions
}

func newBindCmd(global *internal.GlobalCommandOptions) *cobra.Command {
	flags := &bindFlags{global: global}

	cmd := &cobra.Command{
		Use:   "bind",
		Short: "Validate parameter values against a template and resolve its expressions",
		Long: heredoc.Doc(`
			Bind checks every supplied parameter value against the template's parameter
			declarations (type, allowed values, length and value bounds), applies declared
			defaults, resolves the template's variables and expressions, and prints the fully
			resolved template.

			Parameter values come from, in order of precedence:

				1. --set name=value flags
				2. a --parameters file (with ${ENV_VAR} substitution)
				3. declared default values
				4. interactive prompts for anything still missing

			With --request the output is the deployment request body for the Azure Resource
			Manager deployments API instead of the resolved template.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.template, "template", "f", "azuredeploy.json", "Path of the template to bind.")
	cmd.Flags().StringVarP(&flags.parameters, "parameters", "p", "", "Path of a .parameters.json file with values.")
	cmd.Flags().StringArrayVar(&flags.envFiles, "env-file", nil,
		"dotenv files that provide values for ${ENV_VAR} references in the parameter file. May be repeated.")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "Sets a parameter value, as name=value. May be repeated.")
	cmd.Flags().StringVar(&flags.subscription, "subscription", "", "Subscription id the deployment is scoped to.")
	cmd.Flags().StringVarP(&flags.resourceGroup, "resource-group", "g", "", "Resource group the deployment is scoped to.")
	cmd.Flags().StringVarP(&flags.location, "location", "l", "", "Location reported by resourceGroup().location.")
	cmd.Flags().StringVar(&flags.deploymentName, "name", "", "Deployment name (defaults to a generated, time-suffixed name).")
	cmd.Flags().BoolVar(&flags.request, "request", false, "Emit a deployment request body instead of the resolved template.")
	output.AddOutputParam(cmd, []output.Format{output.JsonFormat, output.NoneFormat}, output.JsonFormat)

	return cmd
}

func runBind(cmd *cobra.Command, flags *bindFlags) error {
	formatter, err := output.GetFormatter(cmd)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(flags.template)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}

	template, err := binding.ParseTemplate(raw)
	if err != nil {
		return err
	}

	values, err := gatherParameterValues(cmd, template, flags)
	if err != nil {
		return err
	}

	builder := azapi.NewDeploymentRequestBuilder(clock.New())
	deploymentName := flags.deploymentName
	if deploymentName == "" {
		base := strings.TrimSuffix(filepath.Base(flags.template), filepath.Ext(flags.template))
		deploymentName = builder.GenerateDeploymentName(base)
	}

	subscription := flags.subscription
	if subscription == "" {
		subscription = zeroSubscriptionID
	}

	resolved, err := binding.Bind(template, values, binding.Options{
		SubscriptionID: subscription,
		ResourceGroup:  flags.resourceGroup,
		Location:       flags.location,
		DeploymentName: deploymentName,
	})
	if err != nil {
		return err
	}

	var result any = resolved
	if flags.request {
		// The deployments API takes the template verbatim plus the parameter values; binding
		// above already proved the pair is deployable.
		request, err := builder.BuildRequest(raw, values)
		if err != nil {
			return err
		}
		result = request
	}

	if formatter.Kind() == output.NoneFormat {
		fmt.Fprintln(cmd.OutOrStdout(), output.WithSuccessFormat(
			"Bound %d parameter(s), resolved %d resource(s) and %d output(s) as deployment %s.",
			len(resolved.Parameters), len(resolved.Resources), len(resolved.Outputs), deploymentName))
		return nil
	}

	return formatter.Format(result, cmd.OutOrStdout(), nil)
}

// gatherParameterValues merges the bind command's parameter sources: the parameter file,
// then --set overrides, then prompts for anything still missing a value.
func gatherParameterValues(
	cmd *cobra.Command,
	template azure.ArmTemplate,
	flags *bindFlags,
) (azure.ArmParameters, error) {
	lookup := os.Getenv
	if len(flags.envFiles) > 0 {
		fileEnv, err := godotenv.Read(flags.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		lookup = func(name string) string {
			if v, has := fileEnv[name]; has {
				return v
			}
			return os.Getenv(name)
		}
	}

	values := azure.ArmParameters{}
	if flags.parameters != "" {
		fileValues, err := binding.LoadParameterFile(flags.parameters, lookup)
		if err != nil {
			return nil, err
		}
		values = fileValues
	}

	for _, pair := range flags.set {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --set value '%s', expected name=value", pair)
		}
		values[name] = azure.ArmParameterValue{Value: value}
	}

	missing := prompt.MissingParameters(template, values)
	if len(missing) > 0 {
		stdin := cmd.InOrStdin()
		isTerminal := false
		if f, ok := stdin.(*os.File); ok {
			isTerminal = isatty.IsTerminal(f.Fd())
		}
		asker := input.NewAsker(flags.global.NoPrompt, isTerminal, cmd.OutOrStdout(), stdin)

		for _, name := range missing {
			value, err := prompt.ForParameter(asker, name, template.Parameters[name])
			if err != nil {
				return nil, fmt.Errorf("prompting for parameter '%s': %w", name, err)
			}
			values[name] = azure.ArmParameterValue{Value: value}
		}
	}

	return values, nil
}
