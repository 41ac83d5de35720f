// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azapi

import (
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/azure/armbind/pkg/azure"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeploymentName(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	builder := NewDeploymentRequestBuilder(mock)

	name := builder.GenerateDeploymentName("azuredeploy")
	assert.Equal(t, "azuredeploy-1700000000", name)

	// the same clock reading produces the same name
	assert.Equal(t, name, builder.GenerateDeploymentName("azuredeploy"))

	longName := builder.GenerateDeploymentName(strings.Repeat("x", 100))
	assert.Len(t, longName, cArmDeploymentNameLengthMax)
	assert.True(t, strings.HasSuffix(longName, "-1700000000"))
}

func TestBuildRequest(t *testing.T) {
	builder := NewDeploymentRequestBuilder(clock.NewMock())

	rawTemplate := azure.RawArmTemplate(`{
		"$schema": "https://schema.management.azure.com/schemas/2019-04-01/deploymentTemplate.json#",
		"contentVersion": "1.0.0.0",
		"resources": []
	}`)
	parameters := azure.ArmParameters{
		"vmName": {Value: "box1"},
	}

	request, err := builder.BuildRequest(rawTemplate, parameters)
	require.NoError(t, err)

	require.NotNil(t, request.Properties)
	require.NotNil(t, request.Properties.Mode)
	assert.Equal(t, armresources.DeploymentModeIncremental, *request.Properties.Mode)
	assert.Equal(t, parameters, request.Properties.Parameters)

	template, ok := request.Properties.Template.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0.0.0", template["contentVersion"])
}

func TestBuildRequestRejectsInvalidTemplate(t *testing.T) {
	builder := NewDeploymentRequestBuilder(clock.NewMock())

	_, err := builder.BuildRequest(azure.RawArmTemplate(`not json`), nil)
	require.Error(t, err)
}

func TestPortalDeploymentUrl(t *testing.T) {
	url := PortalDeploymentUrl("sub-id", "rg-test", "deploy-1")

	assert.True(t, strings.HasPrefix(url, cPortalUrlBase))
	assert.Contains(t, url, "deploy-1")
	assert.NotContains(t, strings.TrimPrefix(url, "https://"), "//")
}
