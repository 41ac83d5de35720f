// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/azure/armbind/pkg/armexpr"
	"github.com/azure/armbind/pkg/azure"
	"go.uber.org/multierr"
)

// Validate statically checks a template without binding any parameter values: parameter
// declarations are well formed, every expression parses and calls only known functions, every
// parameters()/variables() reference with a literal argument names a declaration, and the variable
// reference graph is acyclic. All findings are returned, combined with multierr.
func Validate(template azure.ArmTemplate) error {
	v := &validator{template: template}

	v.validateParameters()
	v.validateVariables()
	v.validateResources()
	v.validateOutputs()

	return v.err
}

type validator struct {
	template azure.ArmTemplate
	err      error
}

func (v *validator) report(err error) {
	v.err = multierr.Append(v.err, err)
}

func (v *validator) validateParameters() {
	for _, name := range slices.Sorted(maps.Keys(v.template.Parameters)) {
		def := v.template.Parameters[name]

		if _, err := ParameterTypeFromArmType(def.Type); err != nil {
			v.report(&MalformedTemplateError{Detail: fmt.Sprintf("parameter '%s': %s", name, err)})
			continue
		}

		if def.MinValue != nil && def.MaxValue != nil && *def.MinValue > *def.MaxValue {
			v.report(&MalformedTemplateError{
				Detail: fmt.Sprintf("parameter '%s': minValue %d is greater than maxValue %d", name, *def.MinValue, *def.MaxValue),
			})
		}
		if def.MinLength != nil && def.MaxLength != nil && *def.MinLength > *def.MaxLength {
			v.report(&MalformedTemplateError{
				Detail: fmt.Sprintf("parameter '%s': minLength %d is greater than maxLength %d", name, *def.MinLength, *def.MaxLength),
			})
		}

		if def.AllowedValues != nil && len(*def.AllowedValues) == 0 {
			v.report(&MalformedTemplateError{
				Detail: fmt.Sprintf("parameter '%s' has an empty allowedValues set", name),
			})
		}

		// A literal default must be a member of the allowed-value set. Expression defaults are
		// checked at binding time, once their value is known.
		if def.DefaultValue != nil && def.AllowedValues != nil {
			if s, isString := def.DefaultValue.(string); !isString || !armexpr.IsExpression(s) {
				if err := validateParameterValue(name, def, def.DefaultValue); err != nil {
					v.report(err)
				}
			}
		}

		v.checkValue(def.DefaultValue, fmt.Sprintf("parameters.%s.defaultValue", name))
	}
}

func (v *validator) validateVariables() {
	names := slices.Sorted(maps.Keys(v.template.Variables))

	// refs maps each variable to the variables its expressions mention with a literal name.
	refs := make(map[string][]string, len(names))
	for _, name := range names {
		var value any
		if err := json.Unmarshal(v.template.Variables[name], &value); err != nil {
			v.report(&MalformedTemplateError{Detail: fmt.Sprintf("variable '%s' is not valid JSON", name), Inner: err})
			continue
		}

		v.checkValue(value, fmt.Sprintf("variables.%s", name))
		refs[name] = v.collectVariableRefs(value)
	}

	// The reference graph among variables must be acyclic.
	state := make(map[string]visitState, len(names))
	var stack []string
	var visit func(name string)
	visit = func(name string) {
		switch state[name] {
		case stateResolved:
			return
		case stateVisiting:
			start := slices.Index(stack, name)
			cycle := append(slices.Clone(stack[start:]), name)
			v.report(&CyclicVariableReferenceError{Cycle: cycle})
			return
		}

		state[name] = stateVisiting
		stack = append(stack, name)
		for _, ref := range refs[name] {
			if _, declared := refs[ref]; declared {
				visit(ref)
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = stateResolved
	}
	for _, name := range names {
		visit(name)
	}
}

func (v *validator) validateResources() {
	for i, resource := range v.template.Resources {
		path := fmt.Sprintf("resources[%d]", i)
		v.checkValue(resource.Name, path+".name")
		v.checkValue(resource.Location, path+".location")
		for j, dep := range resource.DependsOn {
			v.checkValue(dep, fmt.Sprintf("%s.dependsOn[%d]", path, j))
		}
		v.checkValue(resource.Properties, path+".properties")
	}
}

func (v *validator) validateOutputs() {
	for _, name := range slices.Sorted(maps.Keys(v.template.Outputs)) {
		v.checkValue(v.template.Outputs[name].Value, fmt.Sprintf("outputs.%s.value", name))
	}
}

// checkValue walks a template value, parsing every expression string in it and checking function
// names and literal parameter/variable references against the template's declarations.
func (v *validator) checkValue(value any, path string) {
	switch t := value.(type) {
	case string:
		if !armexpr.IsExpression(t) {
			return
		}
		node, err := armexpr.Parse(t[1 : len(t)-1])
		if err != nil {
			v.report(&MalformedTemplateError{Detail: path, Inner: err})
			return
		}
		v.checkExpression(node, path)
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(t)) {
			v.checkValue(t[key], path+"."+key)
		}
	case []any:
		for i, item := range t {
			v.checkValue(item, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

func (v *validator) checkExpression(node armexpr.Node, path string) {
	armexpr.Walk(node, func(n armexpr.Node) {
		call, ok := n.(*armexpr.FunctionCall)
		if !ok {
			return
		}
		if !armexpr.IsKnownFunction(call.Name) {
			v.report(&MalformedTemplateError{
				Detail: fmt.Sprintf("%s: unknown function '%s'", path, call.Name),
			})
		}
	})

	refs := armexpr.CollectReferences(node)
	for _, name := range refs.Parameters {
		if _, declared := v.template.Parameters[name]; !declared {
			v.report(&UnresolvedReferenceError{Kind: "parameter", Name: name})
		}
	}
	for _, name := range refs.Variables {
		if _, declared := v.template.Variables[name]; !declared {
			v.report(&UnresolvedReferenceError{Kind: "variable", Name: name})
		}
	}
}

func (v *validator) collectVariableRefs(value any) []string {
	var collected []string

	var walkValue func(any)
	walkValue = func(value any) {
		switch t := value.(type) {
		case string:
			if !armexpr.IsExpression(t) {
				return
			}
			node, err := armexpr.Parse(t[1 : len(t)-1])
			if err != nil {
				return
			}
			collected = append(collected, armexpr.CollectReferences(node).Variables...)
		case map[string]any:
			for _, key := range slices.Sorted(maps.Keys(t)) {
				walkValue(t[key])
			}
		case []any:
			for _, item := range t {
				walkValue(item)
			}
		}
	}
	walkValue(value)

	return collected
}
