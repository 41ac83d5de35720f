// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"fmt"
	"slices"

	"github.com/azure/armbind/pkg/armexpr"
	"github.com/azure/armbind/pkg/azure"
)

// parameterBinder binds parameters on demand. A parameter takes its supplied value when one is
// present, otherwise its default, which is itself expression-bearing and may reference other
// parameters (but not variables).
type parameterBinder struct {
	defs       azure.ArmTemplateParameterDefinitions
	values     azure.ArmParameters
	bound      map[string]BoundParameter
	state      map[string]visitState
	stack      []string
	deployment armexpr.DeploymentScope
}

func newParameterBinder(
	defs azure.ArmTemplateParameterDefinitions,
	values azure.ArmParameters,
	deployment armexpr.DeploymentScope,
) *parameterBinder {
	return &parameterBinder{
		defs:       defs,
		values:     values,
		bound:      make(map[string]BoundParameter, len(defs)),
		state:      make(map[string]visitState, len(defs)),
		deployment: deployment,
	}
}

func (b *parameterBinder) bind(name string) (any, error) {
	def, declared := b.defs[name]
	if !declared {
		return nil, &UnresolvedReferenceError{Kind: "parameter", Name: name}
	}

	switch b.state[name] {
	case stateResolved:
		return b.bound[name].Value, nil
	case stateVisiting:
		start := slices.Index(b.stack, name)
		cycle := append(slices.Clone(b.stack[start:]), name)
		return nil, &MalformedTemplateError{
			Detail: fmt.Sprintf("cyclic reference among parameter default values: %v", cycle),
		}
	}

	b.state[name] = stateVisiting
	b.stack = append(b.stack, name)

	value, err := b.resolveValue(name, def)

	b.stack = b.stack[:len(b.stack)-1]
	if err != nil {
		b.state[name] = stateUnvisited
		return nil, err
	}

	if err := validateParameterValue(name, def, value); err != nil {
		b.state[name] = stateUnvisited
		return nil, err
	}

	b.state[name] = stateResolved
	b.bound[name] = BoundParameter{Value: value, Secure: def.Secure()}
	return value, nil
}

func (b *parameterBinder) resolveValue(name string, def azure.ArmTemplateParameterDefinition) (any, error) {
	if supplied, has := b.values[name]; has && supplied.Value != nil {
		paramType, err := ParameterTypeFromArmType(def.Type)
		if err != nil {
			return nil, &MalformedTemplateError{Detail: fmt.Sprintf("parameter '%s': %s", name, err)}
		}
		return coerceParameterValue(paramType, supplied.Value), nil
	}

	if def.DefaultValue != nil {
		value, err := armexpr.EvalValue(def.DefaultValue, &parameterDefaultScope{binder: b})
		if err != nil {
			return nil, fmt.Errorf("resolving default value for parameter '%s': %w", name, err)
		}
		return value, nil
	}

	return nil, &MissingParameterError{Parameter: name}
}

// parameterDefaultScope evaluates parameter default values. Defaults may reference other
// parameters and the deployment scope, but never variables, since variables in turn may reference
// any parameter.
type parameterDefaultScope struct {
	binder *parameterBinder
}

func (s *parameterDefaultScope) Parameter(name string) (any, error) {
	return s.binder.bind(name)
}

func (s *parameterDefaultScope) Variable(name string) (any, error) {
	return nil, &MalformedTemplateError{
		Detail: fmt.Sprintf("a parameter default value references variable '%s'; variables cannot be used in parameter defaults", name),
	}
}

func (s *parameterDefaultScope) Deployment() armexpr.DeploymentScope {
	return s.binder.deployment
}

// NewGuidAllowed marks default-value evaluation as the one place newGuid() is legal, matching
// ARM's restriction of the function to parameter defaults.
func (s *parameterDefaultScope) NewGuidAllowed() bool {
	return true
}
