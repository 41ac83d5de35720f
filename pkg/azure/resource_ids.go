// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"fmt"
	"regexp"
	"strings"
)

// SubscriptionFromRID returns the subscription id component of a resource id or panics if the resource id does not
// contain a subscription.
func SubscriptionFromRID(rid string) string {
	parts := strings.Split(rid, "/")
	for idx, part := range parts {
		if part == "subscriptions" && idx+1 < len(parts) {
			return parts[idx+1]
		}
	}

	panic(fmt.Sprintf("no subscription id component in %s", rid))
}

// Creates Azure subscription resource ID
func SubscriptionRID(subscriptionId string) string {
	return fmt.Sprintf("/subscriptions/%s", subscriptionId)
}

// Creates resource ID for an Azure resource group
func ResourceGroupRID(subscriptionId, resourceGroupName string) string {
	return fmt.Sprintf("%s/resourceGroups/%s", SubscriptionRID(subscriptionId), resourceGroupName)
}

// ResourceRID builds the fully qualified id of a resource group scoped resource. The resource type is the
// `Namespace/type` identifier from the template (e.g. "Microsoft.Network/networkInterfaces") and names holds the
// name segments, one per nested type level. Name segments interleave with the nested type segments, so
// ("Microsoft.Sql/servers/databases", "srv", "db") yields ".../providers/Microsoft.Sql/servers/srv/databases/db".
func ResourceRID(subscriptionId, resourceGroupName, resourceType string, names ...string) string {
	typeParts := strings.Split(resourceType, "/")
	rid := fmt.Sprintf("%s/providers/%s", ResourceGroupRID(subscriptionId, resourceGroupName), typeParts[0])

	parts := typeParts[1:]
	for i, part := range parts {
		rid += "/" + part
		if i < len(names) {
			rid += "/" + names[i]
		}
	}

	// extra names beyond the nested type depth append as trailing segments
	for i := len(parts); i < len(names); i++ {
		rid += "/" + names[i]
	}

	return rid
}

// Creates resource group level deployment resource ID
func ResourceGroupDeploymentRID(subscriptionId string, resourceGroupName string, deploymentId string) string {
	return fmt.Sprintf(
		"%s/providers/Microsoft.Resources/deployments/%s",
		ResourceGroupRID(subscriptionId, resourceGroupName),
		deploymentId,
	)
}

var resourceIdRegex = regexp.MustCompile("/.+/(?i)resourceGroups/(.+?)/.+")

// Find the resource group name from the resource id
func GetResourceGroupName(resourceId string) *string {
	matches := resourceIdRegex.FindSubmatch([]byte(resourceId))
	if matches == nil || len(matches) < 2 {
		return nil
	}

	name := string(matches[1])
	return &name
}

// ResourceNameFromRID returns the trailing name segment of a resource id. For a bare name (no separators) the
// name itself is returned.
func ResourceNameFromRID(rid string) string {
	if idx := strings.LastIndex(rid, "/"); idx >= 0 {
		return rid[idx+1:]
	}

	return rid
}
