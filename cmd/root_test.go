// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixturePath = filepath.Join("..", "pkg", "binding", "testdata", "vm-simple-linux.json")

func runCommand(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	root := NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)

	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestBindCommand(t *testing.T) {
	stdout, _, err := runCommand(t,
		"bind",
		"--template", fixturePath,
		"--set", "vmName=box1",
		"--set", "adminUsername=azureuser",
		"--set", "adminPassword=correct-horse-battery",
		"--no-prompt",
	)
	require.NoError(t, err)

	var resolved struct {
		Parameters map[string]any `json:"parameters"`
		Resources  []struct {
			Name      string   `json:"name"`
			DependsOn []string `json:"dependsOn"`
		} `json:"resources"`
		Outputs map[string]struct {
			Value any `json:"value"`
		} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resolved))

	assert.Equal(t, "box1", resolved.Parameters["vmName"])
	assert.Equal(t, "<redacted>", resolved.Parameters["adminPassword"])
	require.Len(t, resolved.Resources, 3)
	assert.Equal(t, "box1-nic", resolved.Resources[1].Name)
	assert.Equal(t, "box1.example.com", resolved.Outputs["hostname"].Value)
}

func TestBindCommandBuildsDeploymentRequest(t *testing.T) {
	stdout, _, err := runCommand(t,
		"bind",
		"--template", fixturePath,
		"--set", "vmName=box1",
		"--set", "adminUsername=azureuser",
		"--set", "adminPassword=correct-horse-battery",
		"--no-prompt",
		"--request",
	)
	require.NoError(t, err)

	var request struct {
		Properties struct {
			Mode       string         `json:"mode"`
			Parameters map[string]any `json:"parameters"`
			Template   map[string]any `json:"template"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &request))

	assert.Equal(t, "Incremental", request.Properties.Mode)
	assert.Contains(t, request.Properties.Parameters, "vmName")
	assert.Equal(t, "1.0.0.0", request.Properties.Template["contentVersion"])
}

func TestBindCommandRejectsBadParameterValue(t *testing.T) {
	_, _, err := runCommand(t,
		"bind",
		"--template", fixturePath,
		"--set", "vmName=box1",
		"--set", "adminUsername=azureuser",
		"--set", "adminPassword=correct-horse-battery",
		"--set", "ubuntuOSVersion=18.04",
		"--no-prompt",
	)
	require.Error(t, err)
	assert.ErrorContains(t, err, "ubuntuOSVersion")
}

func TestBindCommandFailsWithoutRequiredValues(t *testing.T) {
	_, _, err := runCommand(t,
		"bind",
		"--template", fixturePath,
		"--no-prompt",
	)
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "validate", "--template", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")
}

func TestValidateCommandReportsProblems(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, writeFile(bad, `{
		"$schema": "https://schema.management.azure.com/schemas/2019-04-01/deploymentTemplate.json#",
		"contentVersion": "1.0.0.0",
		"variables": {
			"a": "[variables('b')]",
			"b": "[variables('a')]"
		},
		"resources": []
	}`))

	_, stderr, err := runCommand(t, "validate", "--template", bad)
	require.Error(t, err)
	assert.Contains(t, stderr, "cyclic variable reference")
}

func TestParamsCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "params", "--template", fixturePath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "ubuntuOSVersion")
	assert.Contains(t, stdout, "16.04.0-LTS")
	assert.Contains(t, stdout, "The name of the virtual machine.")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "armbind version")
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0600)
}
