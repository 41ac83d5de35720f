// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package binding

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/azure/armbind/pkg/azure"
)

// ParameterType is the binder's view of the type of an ARM template parameter.
type ParameterType string

const (
	ParameterTypeString  ParameterType = "string"
	ParameterTypeNumber  ParameterType = "number"
	ParameterTypeBoolean ParameterType = "bool"
	ParameterTypeObject  ParameterType = "object"
	ParameterTypeArray   ParameterType = "array"
)

// ParameterTypeFromArmType maps the type name used in a template parameter declaration to a
// ParameterType. Secure variants map to their plain counterparts.
func ParameterTypeFromArmType(armType string) (ParameterType, error) {
	switch armType {
	case "string", "secureString", "securestring":
		return ParameterTypeString, nil
	case "int":
		return ParameterTypeNumber, nil
	case "bool":
		return ParameterTypeBoolean, nil
	case "object", "secureObject", "secureobject":
		return ParameterTypeObject, nil
	case "array":
		return ParameterTypeArray, nil
	default:
		return "", fmt.Errorf("unrecognized parameter type '%s'", armType)
	}
}

func isValueAssignableToParameterType(paramType ParameterType, value any) bool {
	switch paramType {
	case ParameterTypeArray:
		_, ok := value.([]any)
		return ok
	case ParameterTypeBoolean:
		_, ok := value.(bool)
		return ok
	case ParameterTypeNumber:
		switch t := value.(type) {
		case int, int8, int16, int32, int64:
			return true
		case uint, uint8, uint16, uint32, uint64:
			return true
		case float32:
			return float64(t) == math.Trunc(float64(t))
		case float64:
			return t == math.Trunc(t)
		case json.Number:
			_, err := t.Int64()
			return err == nil
		default:
			return false
		}
	case ParameterTypeObject:
		_, ok := value.(map[string]any)
		return ok
	case ParameterTypeString:
		_, ok := value.(string)
		return ok
	default:
		panic(fmt.Sprintf("unexpected type: %v", paramType))
	}
}

// coerceParameterValue relaxes the handling of bool and int parameters to accept convertible
// strings, which is how values arrive from `--set` flags and environment substitution.
func coerceParameterValue(paramType ParameterType, value any) any {
	if value == nil || reflect.TypeOf(value).Kind() != reflect.String {
		return value
	}

	switch paramType {
	case ParameterTypeBoolean:
		if val, ok := value.(string); ok {
			if boolVal, err := strconv.ParseBool(val); err == nil {
				return boolVal
			}
		}
	case ParameterTypeNumber:
		if val, ok := value.(string); ok {
			if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
				return int(intVal)
			}
		}
	}

	return value
}

// validateParameterValue checks a coerced value against the parameter's declaration: type
// assignability, allowed-value membership and the min/max and length constraints.
func validateParameterValue(name string, def azure.ArmTemplateParameterDefinition, value any) error {
	paramType, err := ParameterTypeFromArmType(def.Type)
	if err != nil {
		return &MalformedTemplateError{Detail: fmt.Sprintf("parameter '%s': %s", name, err)}
	}

	if !isValueAssignableToParameterType(paramType, value) {
		return &InvalidParameterValueError{
			Parameter: name,
			Value:     value,
			Reason:    fmt.Sprintf("a value of type %T is not assignable to parameter type '%s'", value, def.Type),
		}
	}

	if def.AllowedValues != nil {
		matched := false
		for _, allowed := range *def.AllowedValues {
			if parameterValuesEqual(allowed, value) {
				matched = true
				break
			}
		}
		if !matched {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("'%v' is not in the set of allowed values", value),
			}
		}
	}

	switch paramType {
	case ParameterTypeNumber:
		v := numberValue(value)
		if def.MinValue != nil && v < *def.MinValue {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("%d is less than the minimum value %d", v, *def.MinValue),
			}
		}
		if def.MaxValue != nil && v > *def.MaxValue {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("%d is greater than the maximum value %d", v, *def.MaxValue),
			}
		}
	case ParameterTypeString:
		s := value.(string)
		if def.MinLength != nil && len(s) < *def.MinLength {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("length %d is less than the minimum length %d", len(s), *def.MinLength),
			}
		}
		if def.MaxLength != nil && len(s) > *def.MaxLength {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("length %d is greater than the maximum length %d", len(s), *def.MaxLength),
			}
		}
	case ParameterTypeArray:
		arr := value.([]any)
		if def.MinLength != nil && len(arr) < *def.MinLength {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("length %d is less than the minimum length %d", len(arr), *def.MinLength),
			}
		}
		if def.MaxLength != nil && len(arr) > *def.MaxLength {
			return &InvalidParameterValueError{
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("length %d is greater than the maximum length %d", len(arr), *def.MaxLength),
			}
		}
	}

	return nil
}

// parameterValuesEqual compares an allowed value against a candidate. Numbers are compared by
// magnitude since allowed values decode as float64 while bound values may be int.
func parameterValuesEqual(a, b any) bool {
	an, aIsNum := parameterNumber(a)
	bn, bIsNum := parameterNumber(b)
	if aIsNum && bIsNum {
		return an == bn
	}

	return reflect.DeepEqual(a, b)
}

func parameterNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func numberValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint:
		return int(t)
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return int(t)
	case uint64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		i, _ := t.Int64()
		return int(i)
	default:
		panic(fmt.Sprintf("numberValue: unexpected type %T", v))
	}
}
