// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"bytes"
	"encoding/json"

	_ "embed"

	"github.com/azure/armbind/pkg/azure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed template.schema.json
var templateSchemaText string

var templateSchema = jsonschema.MustCompileString("template.schema.json", templateSchemaText)

// ParseTemplate decodes a deployment template document, validating it against the deployment
// template schema first. Schema violations and JSON syntax errors are returned as
// MalformedTemplateError.
func ParseTemplate(raw azure.RawArmTemplate) (azure.ArmTemplate, error) {
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return azure.ArmTemplate{}, &MalformedTemplateError{Detail: "template is not valid JSON", Inner: err}
	}

	if err := templateSchema.Validate(normalizeNumbers(doc)); err != nil {
		return azure.ArmTemplate{}, &MalformedTemplateError{Detail: "template does not match the deployment template schema", Inner: err}
	}

	var template azure.ArmTemplate
	if err := json.Unmarshal(raw, &template); err != nil {
		return azure.ArmTemplate{}, &MalformedTemplateError{Detail: "decoding template", Inner: err}
	}

	return template, nil
}

// normalizeNumbers converts json.Number values into the float64/int64 representation the schema
// validator expects. Decoding with UseNumber keeps integer parameter bounds exact.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for key, value := range t {
			t[key] = normalizeNumbers(value)
		}
		return t
	case []any:
		for i, value := range t {
			t[i] = normalizeNumbers(value)
		}
		return t
	default:
		return v
	}
}
