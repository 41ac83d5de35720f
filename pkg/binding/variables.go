// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/azure/armbind/pkg/armexpr"
)

type visitState int

const (
	stateUnvisited visitState = iota
	stateVisiting
	stateResolved
)

// variableResolver resolves template variables on demand, memoizing results. Resolution of one
// variable may recurse into another through the evaluation scope; a visit marker on each variable
// turns unbounded recursion into a CyclicVariableReferenceError carrying the cycle path.
type variableResolver struct {
	scope    armexpr.Scope
	raw      map[string]any
	resolved map[string]any
	state    map[string]visitState
	stack    []string
}

func newVariableResolver(variables map[string]json.RawMessage) (*variableResolver, error) {
	raw := make(map[string]any, len(variables))
	for name, rawValue := range variables {
		var value any
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return nil, &MalformedTemplateError{
				Detail: fmt.Sprintf("variable '%s' is not valid JSON", name),
				Inner:  err,
			}
		}
		raw[name] = value
	}

	return &variableResolver{
		raw:      raw,
		resolved: make(map[string]any, len(variables)),
		state:    make(map[string]visitState, len(variables)),
	}, nil
}

func (r *variableResolver) resolve(name string) (any, error) {
	value, declared := r.raw[name]
	if !declared {
		return nil, &UnresolvedReferenceError{Kind: "variable", Name: name}
	}

	switch r.state[name] {
	case stateResolved:
		return r.resolved[name], nil
	case stateVisiting:
		start := slices.Index(r.stack, name)
		cycle := append(slices.Clone(r.stack[start:]), name)
		return nil, &CyclicVariableReferenceError{Cycle: cycle}
	}

	r.state[name] = stateVisiting
	r.stack = append(r.stack, name)

	resolved, err := armexpr.EvalValue(value, r.scope)

	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		r.state[name] = stateUnvisited
		return nil, err
	}

	r.state[name] = stateResolved
	r.resolved[name] = resolved
	return resolved, nil
}
