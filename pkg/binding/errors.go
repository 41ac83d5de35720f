// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"fmt"
	"strings"
)

// MissingParameterError is returned when a template parameter has neither a supplied value nor a
// default value.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("no value provided for required parameter '%s'", e.Parameter)
}

// InvalidParameterValueError is returned when a supplied parameter value fails validation against
// the parameter's declaration.
type InvalidParameterValueError struct {
	Parameter string
	Value     any
	Reason    string
}

func (e *InvalidParameterValueError) Error() string {
	return fmt.Sprintf("invalid value for parameter '%s': %s", e.Parameter, e.Reason)
}

// UnresolvedReferenceError is returned when an expression references a parameter, variable or
// resource that the template does not declare.
type UnresolvedReferenceError struct {
	// Kind is "parameter", "variable" or "resource".
	Kind string
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("reference to undeclared %s '%s'", e.Kind, e.Name)
}

// CyclicVariableReferenceError is returned when the variable reference graph contains a cycle.
// Cycle holds the variable names along the cycle, ending with the name that closed it.
type CyclicVariableReferenceError struct {
	Cycle []string
}

func (e *CyclicVariableReferenceError) Error() string {
	return fmt.Sprintf("cyclic variable reference: %s", strings.Join(e.Cycle, " -> "))
}

// MalformedTemplateError is returned when the template document itself violates the deployment
// template shape, before or during binding.
type MalformedTemplateError struct {
	Detail string
	Inner  error
}

func (e *MalformedTemplateError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("malformed template: %s: %v", e.Detail, e.Inner)
	}

	return fmt.Sprintf("malformed template: %s", e.Detail)
}

func (e *MalformedTemplateError) Unwrap() error {
	return e.Inner
}
