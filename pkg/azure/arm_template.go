// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"encoding/json"
	"strings"
)

// RawArmTemplate is a JSON encoded ARM template.
type RawArmTemplate = json.RawMessage

// ArmTemplate represents an Azure Resource Manager deployment template. It follows the structure outlined
// at https://learn.microsoft.com/azure/azure-resource-manager/templates/syntax, but only exposes portions of the
// object that armbind cares about.
type ArmTemplate struct {
	Schema         string                          `json:"$schema"`
	ContentVersion string                          `json:"contentVersion"`
	Parameters     ArmTemplateParameterDefinitions `json:"parameters,omitempty"`
	Variables      map[string]json.RawMessage      `json:"variables,omitempty"`
	Resources      []ArmResource                   `json:"resources,omitempty"`
	Outputs        ArmTemplateOutputs              `json:"outputs,omitempty"`
}

type ArmTemplateParameterDefinitions map[string]ArmTemplateParameterDefinition

type ArmTemplateOutputs map[string]ArmTemplateOutput

type ArmTemplateParameterDefinition struct {
	Type          string                     `json:"type"`
	DefaultValue  any                        `json:"defaultValue,omitempty"`
	AllowedValues *[]any                     `json:"allowedValues,omitempty"`
	MinValue      *int                       `json:"minValue,omitempty"`
	MaxValue      *int                       `json:"maxValue,omitempty"`
	MinLength     *int                       `json:"minLength,omitempty"`
	MaxLength     *int                       `json:"maxLength,omitempty"`
	Metadata      map[string]json.RawMessage `json:"metadata,omitempty"`
}

// Secure reports whether the parameter's value must be redacted. Template type names are
// case-insensitive, so "securestring" declares a secure parameter just as "secureString" does.
func (d *ArmTemplateParameterDefinition) Secure() bool {
	return strings.EqualFold(d.Type, "secureObject") || strings.EqualFold(d.Type, "secureString")
}

// Description returns the value of the "description" string metadata for this parameter or empty if it can not be found.
func (d ArmTemplateParameterDefinition) Description() (string, bool) {
	if v, has := d.Metadata["description"]; has {
		var description string
		if err := json.Unmarshal(v, &description); err == nil {
			return description, true
		}
	}

	return "", false
}

// ArmResource is a single resource entry of a deployment template. Name, Location,
// DependsOn entries and every string inside Properties may be template expressions.
type ArmResource struct {
	Type       string         `json:"type"`
	APIVersion string         `json:"apiVersion"`
	Name       string         `json:"name"`
	Location   string         `json:"location,omitempty"`
	DependsOn  []string       `json:"dependsOn,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type ArmTemplateOutput struct {
	Type     string         `json:"type"`
	Value    any            `json:"value"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
