// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package armexpr

import "strings"

// Walk visits node and every node beneath it in evaluation order.
func Walk(node Node, visit func(Node)) {
	visit(node)

	switch n := node.(type) {
	case *FunctionCall:
		for _, arg := range n.Args {
			Walk(arg, visit)
		}
	case *PropertyAccess:
		Walk(n.Target, visit)
	}
}

// References holds the parameter and variable names an expression tree mentions through
// parameters('name') and variables('name') calls with literal arguments.
type References struct {
	Parameters []string
	Variables  []string
}

// CollectReferences scans an expression tree without evaluating it. Calls whose argument is itself
// an expression are skipped; those can only be checked during binding.
func CollectReferences(node Node) References {
	var refs References

	Walk(node, func(n Node) {
		call, ok := n.(*FunctionCall)
		if !ok || len(call.Args) != 1 {
			return
		}
		lit, ok := call.Args[0].(*StringLiteral)
		if !ok {
			return
		}

		switch strings.ToLower(call.Name) {
		case "parameters":
			refs.Parameters = append(refs.Parameters, lit.Value)
		case "variables":
			refs.Variables = append(refs.Variables, lit.Value)
		}
	})

	return refs
}

// IsKnownFunction reports whether name is a function the evaluator implements. Function names are
// case-insensitive. parameters, variables and if dispatch outside the builtin table (the first two
// resolve through the scope, if evaluates lazily) but are known functions all the same.
func IsKnownFunction(name string) bool {
	lower := strings.ToLower(name)
	if lower == "parameters" || lower == "variables" || lower == "if" {
		return true
	}

	_, has := builtins[lower]
	return has
}
