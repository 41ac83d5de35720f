// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/azure/armbind/pkg/azure"
	"github.com/drone/envsubst"
)

// LoadParameterFile reads a `.parameters.json` file, substituting `${ENV_VAR}` references through
// lookup before decoding. A lookup of nil substitutes from the process environment.
func LoadParameterFile(path string, lookup func(string) string) (azure.ArmParameters, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter file: %w", err)
	}

	return ParseParameters(contents, lookup)
}

// ParseParameters decodes the contents of a `.parameters.json` document after environment
// substitution.
func ParseParameters(contents []byte, lookup func(string) string) (azure.ArmParameters, error) {
	if lookup == nil {
		lookup = os.Getenv
	}

	replaced, err := envsubst.Eval(string(contents), lookup)
	if err != nil {
		return nil, fmt.Errorf("substituting environment variables inside parameter file: %w", err)
	}

	var paramFile azure.ArmParameterFile
	if err := json.Unmarshal([]byte(replaced), &paramFile); err != nil {
		return nil, fmt.Errorf("unmarshalling template parameters: %w", err)
	}

	return paramFile.Parameters, nil
}
