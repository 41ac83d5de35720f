// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package armexpr

import (
	"fmt"
	"strings"
)

// Scope supplies the named values an expression may reference during evaluation.
type Scope interface {
	// Parameter returns the bound value of the named template parameter.
	Parameter(name string) (any, error)
	// Variable returns the resolved value of the named template variable.
	Variable(name string) (any, error)
	// Deployment returns the deployment scope the template is being bound against.
	Deployment() DeploymentScope
}

// DeploymentScope carries the ambient deployment identifiers that scope functions such as
// resourceGroup(), subscription() and deployment() report.
type DeploymentScope struct {
	SubscriptionID string
	ResourceGroup  string
	Location       string
	Name           string
}

// IsExpression reports whether a template string value is a bracketed expression. Strings starting
// with `[[` are escaped literals, not expressions.
func IsExpression(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' && !strings.HasPrefix(s, "[[")
}

// EvalString evaluates a string value from a template document. Bracketed expressions are parsed
// and evaluated against scope and may produce a value of any type. The `[[` escape is unescaped.
// Any other string is returned verbatim.
func EvalString(s string, scope Scope) (any, error) {
	if strings.HasPrefix(s, "[[") {
		return s[1:], nil
	}

	if !IsExpression(s) {
		return s, nil
	}

	node, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return nil, err
	}

	return evalNode(node, scope)
}

// EvalValue evaluates every string inside a decoded JSON value, recursing through objects and
// arrays. Non-string leaves are returned unchanged. The input is not mutated.
func EvalValue(v any, scope Scope) (any, error) {
	switch t := v.(type) {
	case string:
		return EvalString(t, scope)
	case map[string]any:
		resolved := make(map[string]any, len(t))
		for key, value := range t {
			rv, err := EvalValue(value, scope)
			if err != nil {
				return nil, err
			}
			resolved[key] = rv
		}
		return resolved, nil
	case []any:
		resolved := make([]any, len(t))
		for i, value := range t {
			rv, err := EvalValue(value, scope)
			if err != nil {
				return nil, err
			}
			resolved[i] = rv
		}
		return resolved, nil
	default:
		return v, nil
	}
}

func evalNode(node Node, scope Scope) (any, error) {
	switch n := node.(type) {
	case *StringLiteral:
		return n.Value, nil
	case *NumberLiteral:
		return n.Value, nil
	case *PropertyAccess:
		target, err := evalNode(n.Target, scope)
		if err != nil {
			return nil, err
		}
		return evalPropertyAccess(n, target)
	case *FunctionCall:
		return evalCall(n, scope)
	default:
		panic(fmt.Sprintf("unknown expression node type %T", node))
	}
}

// evalPropertyAccess selects a property from an object value. ARM treats property names as
// case-insensitive, so an exact match is preferred and a case-insensitive match is accepted.
func evalPropertyAccess(n *PropertyAccess, target any) (any, error) {
	obj, ok := target.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot access property '%s' of non-object value produced by %s", n.Property, n.Target)
	}

	if v, has := obj[n.Property]; has {
		return v, nil
	}

	for key, v := range obj {
		if strings.EqualFold(key, n.Property) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("value produced by %s has no property '%s'", n.Target, n.Property)
}

func evalCall(call *FunctionCall, scope Scope) (any, error) {
	name := strings.ToLower(call.Name)

	// parameters() and variables() resolve through the scope so that the binder can surface
	// unresolved references and variable cycles with full context. if() evaluates lazily: only
	// the chosen branch runs, so a guarded expression like if(equals(x, 0), 'none', div(1, x))
	// never divides by zero.
	switch name {
	case "if":
		return evalIfCall(call, scope)
	case "parameters", "variables":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("%s() expects exactly one argument", call.Name)
		}
		arg, err := evalNode(call.Args[0], scope)
		if err != nil {
			return nil, err
		}
		refName, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("%s() expects a string argument", call.Name)
		}
		if name == "parameters" {
			return scope.Parameter(refName)
		}
		return scope.Variable(refName)
	}

	fn, has := builtins[name]
	if !has {
		return nil, fmt.Errorf("unknown function '%s'", call.Name)
	}

	args := make([]any, len(call.Args))
	for i, argNode := range call.Args {
		arg, err := evalNode(argNode, scope)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("%s() called with %d arguments, expects %s", call.Name, len(args), fn.arity())
	}

	result, err := fn.eval(scope, args)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", call.Name, err)
	}

	return result, nil
}

func evalIfCall(call *FunctionCall, scope Scope) (any, error) {
	if len(call.Args) != 3 {
		return nil, fmt.Errorf("%s() called with %d arguments, expects exactly 3", call.Name, len(call.Args))
	}

	cond, err := evalNode(call.Args[0], scope)
	if err != nil {
		return nil, err
	}
	b, ok := cond.(bool)
	if !ok {
		return nil, fmt.Errorf("%s(): argument 1 must be a bool, got %T", call.Name, cond)
	}

	if b {
		return evalNode(call.Args[1], scope)
	}

	return evalNode(call.Args[2], scope)
}
