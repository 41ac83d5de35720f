// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionFromRID(t *testing.T) {
	require.Equal(
		t,
		"SUB_ID",
		SubscriptionFromRID("/subscriptions/SUB_ID/resourceGroups/RESOURCE_GROUP"),
	)

	require.Panics(t, func() {
		SubscriptionFromRID("/resourceGroups/RESOURCE_GROUP")
	})
}

func TestResourceRID(t *testing.T) {
	assert.Equal(t,
		"/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Network/networkInterfaces/my-nic",
		ResourceRID("sub", "rg", "Microsoft.Network/networkInterfaces", "my-nic"),
	)

	assert.Equal(t,
		"/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Sql/servers/srv/databases/db",
		ResourceRID("sub", "rg", "Microsoft.Sql/servers/databases", "srv", "db"),
	)
}

func TestGetResourceGroupName(t *testing.T) {
	name := GetResourceGroupName("/subscriptions/sub/resourceGroups/my-rg/providers/Microsoft.Network/networkInterfaces/my-nic")
	require.NotNil(t, name)
	assert.Equal(t, "my-rg", *name)

	assert.Nil(t, GetResourceGroupName("/subscriptions/sub"))
}

func TestResourceNameFromRID(t *testing.T) {
	assert.Equal(t, "my-nic",
		ResourceNameFromRID("/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Network/networkInterfaces/my-nic"))
	assert.Equal(t, "bare-name", ResourceNameFromRID("bare-name"))
}

func TestParameterDefinitionDescription(t *testing.T) {
	var def ArmTemplateParameterDefinition
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "string",
		"metadata": { "description": "The name of the virtual machine." }
	}`), &def))

	description, has := def.Description()
	require.True(t, has)
	assert.Equal(t, "The name of the virtual machine.", description)

	_, has = ArmTemplateParameterDefinition{}.Description()
	assert.False(t, has)
}

func TestParameterDefinitionSecure(t *testing.T) {
	assert.True(t, (&ArmTemplateParameterDefinition{Type: "secureString"}).Secure())
	assert.True(t, (&ArmTemplateParameterDefinition{Type: "secureObject"}).Secure())
	// type names are case-insensitive in templates; both spellings are secure
	assert.True(t, (&ArmTemplateParameterDefinition{Type: "securestring"}).Secure())
	assert.True(t, (&ArmTemplateParameterDefinition{Type: "secureobject"}).Secure())
	assert.False(t, (&ArmTemplateParameterDefinition{Type: "string"}).Secure())
	assert.False(t, (&ArmTemplateParameterDefinition{Type: "object"}).Secure())
}
