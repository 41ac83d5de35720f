// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package prompt collects values for template parameters that were not supplied through a
// parameter file or flag overrides.
package prompt

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/azure/armbind/pkg/azure"
	"github.com/azure/armbind/pkg/binding"
	"github.com/azure/armbind/pkg/input"
)

// MissingParameters returns the names of parameters that require a value (they declare no
// default) and have none in values, in name order.
func MissingParameters(template azure.ArmTemplate, values azure.ArmParameters) []string {
	var missing []string
	for _, name := range slices.Sorted(maps.Keys(template.Parameters)) {
		def := template.Parameters[name]
		if def.DefaultValue != nil {
			continue
		}
		if v, has := values[name]; has && v.Value != nil {
			continue
		}
		missing = append(missing, name)
	}

	return missing
}

// ForParameter prompts for a single parameter value, honoring the declaration: a selection over
// allowed values, a Y/n confirm for booleans, hidden input for secure strings, JSON entry for
// objects and arrays, and plain input otherwise. Invalid input re-prompts.
func ForParameter(asker input.Asker, name string, def azure.ArmTemplateParameterDefinition) (any, error) {
	paramType, err := binding.ParameterTypeFromArmType(def.Type)
	if err != nil {
		return nil, err
	}

	securedParam := "parameter"
	if def.Secure() {
		securedParam = "secured parameter"
	}
	msg := fmt.Sprintf("Enter a value for the '%s' %s:", name, securedParam)
	help, _ := def.Description()

	if def.AllowedValues != nil {
		options := make([]string, 0, len(*def.AllowedValues))
		for _, option := range *def.AllowedValues {
			options = append(options, fmt.Sprintf("%v", option))
		}
		if len(options) == 0 {
			return nil, fmt.Errorf("parameter '%s' has no allowed values defined", name)
		}

		var choice int
		err := asker(&survey.Select{
			Message: msg,
			Help:    help,
			Options: options,
			Default: options[0],
		}, &choice)
		if err != nil {
			return nil, err
		}
		return (*def.AllowedValues)[choice], nil
	}

	switch paramType {
	case binding.ParameterTypeBoolean:
		confirm := false
		if err := asker(&survey.Confirm{Message: msg, Help: help}, &confirm); err != nil {
			return nil, err
		}
		return confirm, nil
	case binding.ParameterTypeNumber:
		return askWithRetry(asker, msg, help, func(raw string) (any, error) {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("'%s' is not an integer", raw)
			}
			return v, nil
		})
	case binding.ParameterTypeObject, binding.ParameterTypeArray:
		return askWithRetry(asker, msg, help, func(raw string) (any, error) {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, fmt.Errorf("'%s' is not valid JSON", raw)
			}
			return v, nil
		})
	default:
		var value string
		var err error
		if def.Secure() {
			err = asker(&survey.Password{Message: msg, Help: help}, &value)
		} else {
			err = asker(&survey.Input{Message: msg, Help: help}, &value)
		}
		if err != nil {
			return nil, err
		}
		return value, nil
	}
}

// promptAttemptsMax bounds re-prompting so that non-interactive input at EOF cannot loop forever.
const promptAttemptsMax = 3

// askWithRetry prompts until convert accepts the response. Errors from the asker itself are
// returned as is.
func askWithRetry(
	asker input.Asker,
	msg string,
	help string,
	convert func(string) (any, error),
) (any, error) {
	var err error
	for attempt := 0; attempt < promptAttemptsMax; attempt++ {
		var raw string
		if askErr := asker(&survey.Input{Message: msg, Help: help}, &raw); askErr != nil {
			return nil, askErr
		}

		var value any
		if value, err = convert(raw); err == nil {
			return value, nil
		}
		fmt.Println(err.Error())
	}

	return nil, err
}
