// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package azapi shapes binding results into the request bodies the Azure Resource Manager
// deployment API accepts. It never calls the API itself.
package azapi

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/azure/armbind/pkg/azure"
	"github.com/benbjohnson/clock"
)

// cArmDeploymentNameLengthMax is the maximum length of the name of a deployment in ARM.
const (
	cArmDeploymentNameLengthMax = 64
	cPortalUrlFragment          = "#view/HubsExtension/DeploymentDetailsBlade/~/overview/id"
	cPortalUrlBase              = "https://portal.azure.com"
)

// DeploymentRequestBuilder produces deployment request bodies from a template document and its
// bound parameter values.
type DeploymentRequestBuilder struct {
	clock clock.Clock
}

func NewDeploymentRequestBuilder(clock clock.Clock) *DeploymentRequestBuilder {
	return &DeploymentRequestBuilder{
		clock: clock,
	}
}

// GenerateDeploymentName creates a name to use for the deployment object. It appends the current
// unix time to the base name (separated by a hyphen) to provide a unique name for each deployment.
// If the resulting name is longer than the ARM limit, the longest suffix of the name under the
// limit is returned.
func (b *DeploymentRequestBuilder) GenerateDeploymentName(baseName string) string {
	name := fmt.Sprintf("%s-%d", baseName, b.clock.Now().Unix())
	if len(name) <= cArmDeploymentNameLengthMax {
		return name
	}

	return name[len(name)-cArmDeploymentNameLengthMax:]
}

// BuildRequest assembles the deployment request body for a template and its parameter values. The
// template decodes into the request as a JSON object, the way the deployments API expects it.
func (b *DeploymentRequestBuilder) BuildRequest(
	rawTemplate azure.RawArmTemplate,
	parameters azure.ArmParameters,
) (*armresources.Deployment, error) {
	var templateObj map[string]any
	if err := json.Unmarshal(rawTemplate, &templateObj); err != nil {
		return nil, fmt.Errorf("decoding template for deployment request: %w", err)
	}

	return &armresources.Deployment{
		Properties: &armresources.DeploymentProperties{
			Template:   templateObj,
			Parameters: parameters,
			Mode:       to.Ptr(armresources.DeploymentModeIncremental),
		},
	}, nil
}

// PortalDeploymentUrl returns the Azure portal overview link for a resource group scoped
// deployment, matching where the deployment created from a request built here would land.
func PortalDeploymentUrl(subscriptionId, resourceGroupName, deploymentName string) string {
	deploymentId := azure.ResourceGroupDeploymentRID(subscriptionId, resourceGroupName, deploymentName)

	return fmt.Sprintf("%s/%s/%s",
		cPortalUrlBase,
		cPortalUrlFragment,
		url.PathEscape(deploymentId),
	)
}
