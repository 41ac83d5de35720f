// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParameterFile(t *testing.T) {
	env := map[string]string{
		"VM_NAME":        "box1",
		"ADMIN_PASSWORD": "correct-horse-battery",
	}
	lookup := func(name string) string { return env[name] }

	values, err := LoadParameterFile(filepath.Join("testdata", "vm-simple-linux.parameters.json"), lookup)
	require.NoError(t, err)

	assert.Equal(t, "box1", values["vmName"].Value)
	assert.Equal(t, "azureuser", values["adminUsername"].Value)
	assert.Equal(t, "correct-horse-battery", values["adminPassword"].Value)
}

func TestParseParameters(t *testing.T) {
	t.Run("SubstitutesEnvironment", func(t *testing.T) {
		values, err := ParseParameters([]byte(`{
			"$schema": "https://schema.management.azure.com/schemas/2019-04-01/deploymentParameters.json#",
			"contentVersion": "1.0.0.0",
			"parameters": {
				"region": { "value": "${REGION}" }
			}
		}`), func(name string) string {
			require.Equal(t, "REGION", name)
			return "eastus2"
		})
		require.NoError(t, err)
		assert.Equal(t, "eastus2", values["region"].Value)
	})

	t.Run("MissingVariableSubstitutesEmpty", func(t *testing.T) {
		values, err := ParseParameters([]byte(`{
			"contentVersion": "1.0.0.0",
			"parameters": { "region": { "value": "${NOT_SET}" } }
		}`), func(string) string { return "" })
		require.NoError(t, err)
		assert.Equal(t, "", values["region"].Value)
	})

	t.Run("NonScalarValues", func(t *testing.T) {
		values, err := ParseParameters([]byte(`{
			"contentVersion": "1.0.0.0",
			"parameters": {
				"tags": { "value": { "env": "dev" } },
				"zones": { "value": [1, 2] }
			}
		}`), nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"env": "dev"}, values["tags"].Value)
		assert.Equal(t, []any{float64(1), float64(2)}, values["zones"].Value)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := ParseParameters([]byte(`{ not json`), nil)
		require.Error(t, err)
	})
}

func TestLoadParameterFileMissing(t *testing.T) {
	_, err := LoadParameterFile(filepath.Join("testdata", "does-not-exist.json"), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "reading parameter file")
}
