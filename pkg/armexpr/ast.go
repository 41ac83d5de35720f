// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package armexpr parses and evaluates the bracketed expression language used by Azure Resource Manager
// deployment templates, e.g. `[concat(parameters('vmName'), '-nic')]`. The syntax is documented at
// https://learn.microsoft.com/azure/azure-resource-manager/templates/template-expressions.
package armexpr

import (
	"fmt"
	"strings"
)

// Node is a parsed expression tree node.
type Node interface {
	// String renders the node using template expression syntax. It is used for error messages and
	// for static reference analysis, not for fidelity round-trips.
	String() string
}

type StringLiteral struct {
	Value string
}

func (n *StringLiteral) String() string {
	return "'" + strings.ReplaceAll(n.Value, "'", "''") + "'"
}

type NumberLiteral struct {
	Value int
}

func (n *NumberLiteral) String() string {
	return fmt.Sprintf("%d", n.Value)
}

type FunctionCall struct {
	Name string
	Args []Node
}

func (n *FunctionCall) String() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}

	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
}

// PropertyAccess selects a named property from the object produced by Target, as in
// `resourceGroup().location`.
type PropertyAccess struct {
	Target   Node
	Property string
}

func (n *PropertyAccess) String() string {
	return fmt.Sprintf("%s.%s", n.Target.String(), n.Property)
}
