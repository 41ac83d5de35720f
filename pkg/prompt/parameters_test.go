// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package prompt

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/azure/armbind/pkg/azure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parameterDefs(t *testing.T, src string) azure.ArmTemplateParameterDefinitions {
	t.Helper()

	var defs azure.ArmTemplateParameterDefinitions
	require.NoError(t, json.Unmarshal([]byte(src), &defs))
	return defs
}

func TestMissingParameters(t *testing.T) {
	template := azure.ArmTemplate{
		Parameters: parameterDefs(t, `{
			"vmName": { "type": "string", "defaultValue": "simple-vm" },
			"adminUsername": { "type": "string" },
			"adminPassword": { "type": "secureString" },
			"region": { "type": "string" }
		}`),
	}

	missing := MissingParameters(template, azure.ArmParameters{
		"region": {Value: "eastus2"},
	})

	assert.Equal(t, []string{"adminPassword", "adminUsername"}, missing)

	// a supplied null does not count as a value
	missing = MissingParameters(template, azure.ArmParameters{
		"adminUsername": {Value: nil},
		"adminPassword": {Value: "correct-horse-battery"},
		"region":        {Value: "eastus2"},
	})
	assert.Equal(t, []string{"adminUsername"}, missing)
}

// scriptedAsker fulfills prompts from a fixed list of responses, in order.
func scriptedAsker(t *testing.T, responses []any) func(p survey.Prompt, response interface{}) error {
	i := 0
	return func(p survey.Prompt, response interface{}) error {
		require.Less(t, i, len(responses), "prompted more times than scripted")
		scripted := responses[i]
		i++

		switch ptr := response.(type) {
		case *string:
			*ptr = scripted.(string)
		case *int:
			*ptr = scripted.(int)
		case *bool:
			*ptr = scripted.(bool)
		default:
			return fmt.Errorf("unexpected response type %T", response)
		}

		return nil
	}
}

func TestForParameter(t *testing.T) {
	defs := parameterDefs(t, `{
		"plain": { "type": "string" },
		"secret": { "type": "secureString" },
		"count": { "type": "int" },
		"enabled": { "type": "bool" },
		"tags": { "type": "object" },
		"sku": { "type": "string", "allowedValues": ["Basic", "Standard", "Premium"] },
		"replicas": { "type": "int", "allowedValues": [1, 3, 5] }
	}`)

	t.Run("String", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{"hello"}), "plain", defs["plain"])
		require.NoError(t, err)
		assert.Equal(t, "hello", value)
	})

	t.Run("SecureStringUsesPasswordPrompt", func(t *testing.T) {
		// both type name spellings declare hidden input
		for _, armType := range []string{"secureString", "securestring"} {
			prompted := false
			asker := func(p survey.Prompt, response interface{}) error {
				_, isPassword := p.(*survey.Password)
				prompted = isPassword
				*(response.(*string)) = "hunter2hunter2"
				return nil
			}

			value, err := ForParameter(asker, "secret", azure.ArmTemplateParameterDefinition{Type: armType})
			require.NoError(t, err)
			assert.True(t, prompted, "secure parameters prompt with hidden input")
			assert.Equal(t, "hunter2hunter2", value)
		}
	})

	t.Run("NumberParsesInteger", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{"42"}), "count", defs["count"])
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	})

	t.Run("NumberRetriesOnBadInput", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{"not-a-number", "7"}), "count", defs["count"])
		require.NoError(t, err)
		assert.Equal(t, 7, value)
	})

	t.Run("NumberGivesUpAfterMaxAttempts", func(t *testing.T) {
		_, err := ForParameter(scriptedAsker(t, []any{"x", "y", "z"}), "count", defs["count"])
		require.Error(t, err)
		assert.ErrorContains(t, err, "not an integer")
	})

	t.Run("Bool", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{true}), "enabled", defs["enabled"])
		require.NoError(t, err)
		assert.Equal(t, true, value)
	})

	t.Run("ObjectParsesJSON", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{`{"env": "dev"}`}), "tags", defs["tags"])
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"env": "dev"}, value)
	})

	t.Run("AllowedValuesSelect", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{2}), "sku", defs["sku"])
		require.NoError(t, err)
		assert.Equal(t, "Premium", value)
	})

	t.Run("AllowedValuesKeepOriginalType", func(t *testing.T) {
		value, err := ForParameter(scriptedAsker(t, []any{1}), "replicas", defs["replicas"])
		require.NoError(t, err)
		// the selection returns the declared value, not its display string
		assert.Equal(t, float64(3), value)
	})

	t.Run("UnknownTypeFails", func(t *testing.T) {
		_, err := ForParameter(scriptedAsker(t, nil), "bad", azure.ArmTemplateParameterDefinition{Type: "float"})
		require.Error(t, err)
	})
}
