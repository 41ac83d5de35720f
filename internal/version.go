// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package internal

import (
	"strings"

	"github.com/blang/semver/v4"
)

// Version is the version string printed by `armbind version`. It has the form
// "<semver> (commit <hash>)" and is set at build time with
// -ldflags="-X 'github.com/azure/armbind/internal.Version=...'".
var Version = "0.0.0-dev.0 (commit 0000000000000000000000000000000000000000)"

// GetVersionNumber returns the semantic version component of Version, or "unknown" when Version
// does not carry a well formed semantic version.
func GetVersionNumber() string {
	pieces := strings.SplitN(Version, " ", 2)
	if len(pieces) < 1 {
		return "unknown"
	}

	if _, err := semver.Parse(pieces[0]); err != nil {
		return "unknown"
	}

	return pieces[0]
}
