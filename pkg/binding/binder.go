// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package binding validates parameter values against an ARM deployment template and resolves the
// template's expressions into a concrete resource list ready to submit to Azure Resource Manager.
//
// Binding is a pure function of its inputs: it performs no I/O and callers may bind distinct
// inputs concurrently.
package binding

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/azure/armbind/pkg/armexpr"
	"github.com/azure/armbind/pkg/azure"
)

// Options carries the deployment scope a template is bound against. The scope feeds expression
// functions such as resourceId(), resourceGroup() and deployment(); binding itself never contacts
// the scope that is named here.
type Options struct {
	SubscriptionID string
	ResourceGroup  string
	Location       string
	DeploymentName string
}

// BoundParameter is a parameter value after validation against its declaration.
type BoundParameter struct {
	Value  any
	Secure bool
}

// MarshalJSON redacts secure parameter values. The raw value stays available to code that holds
// the BoundParameter itself.
func (p BoundParameter) MarshalJSON() ([]byte, error) {
	if p.Secure {
		return json.Marshal("<redacted>")
	}

	return json.Marshal(p.Value)
}

// ResolvedResource is a template resource after every expression in it has been evaluated.
type ResolvedResource struct {
	Type       string         `json:"type"`
	APIVersion string         `json:"apiVersion"`
	Name       string         `json:"name"`
	Location   string         `json:"location,omitempty"`
	DependsOn  []string       `json:"dependsOn,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// OutputValue is a resolved template output.
type OutputValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// ResolvedTemplate is the result of binding: the fully substituted resource list, resolved
// outputs, and the parameter values that were bound. It is constructed once per Bind call and not
// mutated afterwards.
type ResolvedTemplate struct {
	Schema         string                    `json:"$schema"`
	ContentVersion string                    `json:"contentVersion"`
	Parameters     map[string]BoundParameter `json:"parameters,omitempty"`
	Resources      []ResolvedResource        `json:"resources"`
	Outputs        map[string]OutputValue    `json:"outputs,omitempty"`

	byName map[string]int
}

// Resource returns the resolved resource with the given name.
func (t *ResolvedTemplate) Resource(name string) (ResolvedResource, bool) {
	idx, has := t.byName[name]
	if !has {
		return ResolvedResource{}, false
	}

	return t.Resources[idx], true
}

// Bind validates values against the template's parameter declarations, resolves every variable and
// resource expression, and returns the resolved template.
func Bind(template azure.ArmTemplate, values azure.ArmParameters, opts Options) (*ResolvedTemplate, error) {
	for name := range values {
		if _, declared := template.Parameters[name]; !declared {
			return nil, &InvalidParameterValueError{
				Parameter: name,
				Value:     values[name].Value,
				Reason:    "the template does not declare this parameter",
			}
		}
	}

	deployment := armexpr.DeploymentScope{
		SubscriptionID: opts.SubscriptionID,
		ResourceGroup:  opts.ResourceGroup,
		Location:       opts.Location,
		Name:           opts.DeploymentName,
	}

	params := newParameterBinder(template.Parameters, values, deployment)
	variables, err := newVariableResolver(template.Variables)
	if err != nil {
		return nil, err
	}

	scope := &bindScope{parameters: params, variables: variables, deployment: deployment}
	variables.scope = scope

	// Bind parameters and variables eagerly, in name order, so that the first error reported is
	// deterministic for a given template.
	for _, name := range slices.Sorted(maps.Keys(template.Parameters)) {
		if _, err := params.bind(name); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(template.Variables)) {
		if _, err := variables.resolve(name); err != nil {
			return nil, err
		}
	}

	resolved := &ResolvedTemplate{
		Schema:         template.Schema,
		ContentVersion: template.ContentVersion,
		Parameters:     params.bound,
		Resources:      make([]ResolvedResource, 0, len(template.Resources)),
		byName:         make(map[string]int, len(template.Resources)),
	}

	for i, resource := range template.Resources {
		rr, err := resolveResource(resource, scope)
		if err != nil {
			return nil, fmt.Errorf("resolving resource %d (%s): %w", i, resource.Type, err)
		}
		if _, dup := resolved.byName[rr.Name]; dup {
			return nil, &MalformedTemplateError{
				Detail: fmt.Sprintf("more than one resource resolves to the name '%s'", rr.Name),
			}
		}
		resolved.byName[rr.Name] = len(resolved.Resources)
		resolved.Resources = append(resolved.Resources, rr)
	}

	// Every dependency reference must resolve to a resource the template declares. References may
	// be bare names or full resource ids built with resourceId().
	for _, rr := range resolved.Resources {
		for _, dep := range rr.DependsOn {
			if _, has := resolved.byName[azure.ResourceNameFromRID(dep)]; !has {
				return nil, &UnresolvedReferenceError{Kind: "resource", Name: dep}
			}
		}
	}

	if len(template.Outputs) > 0 {
		resolved.Outputs = make(map[string]OutputValue, len(template.Outputs))
		for _, name := range slices.Sorted(maps.Keys(template.Outputs)) {
			output := template.Outputs[name]
			value, err := armexpr.EvalValue(output.Value, scope)
			if err != nil {
				return nil, fmt.Errorf("resolving output '%s': %w", name, err)
			}
			resolved.Outputs[name] = OutputValue{Type: output.Type, Value: value}
		}
	}

	return resolved, nil
}

// ToArmTemplate renders the resolved template as a deployment template document with no remaining
// expressions, parameters or variables.
func (t *ResolvedTemplate) ToArmTemplate() azure.ArmTemplate {
	template := azure.ArmTemplate{
		Schema:         t.Schema,
		ContentVersion: t.ContentVersion,
		Resources:      make([]azure.ArmResource, len(t.Resources)),
	}

	for i, rr := range t.Resources {
		template.Resources[i] = azure.ArmResource{
			Type:       rr.Type,
			APIVersion: rr.APIVersion,
			Name:       rr.Name,
			Location:   rr.Location,
			DependsOn:  rr.DependsOn,
			Properties: rr.Properties,
		}
	}

	if len(t.Outputs) > 0 {
		template.Outputs = make(azure.ArmTemplateOutputs, len(t.Outputs))
		for name, output := range t.Outputs {
			template.Outputs[name] = azure.ArmTemplateOutput{Type: output.Type, Value: output.Value}
		}
	}

	return template
}

func resolveResource(resource azure.ArmResource, scope armexpr.Scope) (ResolvedResource, error) {
	rr := ResolvedResource{
		Type:       resource.Type,
		APIVersion: resource.APIVersion,
	}

	name, err := evalToString(resource.Name, scope)
	if err != nil {
		return ResolvedResource{}, fmt.Errorf("resolving name: %w", err)
	}
	if name == "" {
		return ResolvedResource{}, &MalformedTemplateError{
			Detail: fmt.Sprintf("resource of type '%s' has an empty name", resource.Type),
		}
	}
	rr.Name = name

	if rr.Location, err = evalToString(resource.Location, scope); err != nil {
		return ResolvedResource{}, fmt.Errorf("resolving location: %w", err)
	}

	if len(resource.DependsOn) > 0 {
		rr.DependsOn = make([]string, len(resource.DependsOn))
		for i, dep := range resource.DependsOn {
			if rr.DependsOn[i], err = evalToString(dep, scope); err != nil {
				return ResolvedResource{}, fmt.Errorf("resolving dependsOn[%d]: %w", i, err)
			}
		}
	}

	if resource.Properties != nil {
		properties, err := armexpr.EvalValue(resource.Properties, scope)
		if err != nil {
			return ResolvedResource{}, fmt.Errorf("resolving properties: %w", err)
		}
		rr.Properties = properties.(map[string]any)
	}

	return rr, nil
}

func evalToString(s string, scope armexpr.Scope) (string, error) {
	value, err := armexpr.EvalString(s, scope)
	if err != nil {
		return "", err
	}

	result, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expression %q produced a %T, expected a string", s, value)
	}

	return result, nil
}

// bindScope adapts the parameter binder and variable resolver to the expression evaluator.
type bindScope struct {
	parameters *parameterBinder
	variables  *variableResolver
	deployment armexpr.DeploymentScope
}

func (s *bindScope) Parameter(name string) (any, error) {
	return s.parameters.bind(name)
}

func (s *bindScope) Variable(name string) (any, error) {
	return s.variables.resolve(name)
}

func (s *bindScope) Deployment() armexpr.DeploymentScope {
	return s.deployment
}
