// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionNumber(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.2.3 (commit 8a49cc6e63e0d04ec4dbeb36f10d3fa93d9b4b99)"
	assert.Equal(t, "1.2.3", GetVersionNumber())

	Version = "0.0.0-dev.0 (commit 0000000000000000000000000000000000000000)"
	assert.Equal(t, "0.0.0-dev.0", GetVersionNumber())

	Version = "not-a-version"
	assert.Equal(t, "unknown", GetVersionNumber())
}
