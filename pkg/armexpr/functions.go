// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package armexpr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/azure/armbind/pkg/azure"
	"github.com/google/uuid"
)

type builtin struct {
	minArgs int
	// maxArgs of -1 means variadic.
	maxArgs int
	eval    func(scope Scope, args []any) (any, error)
}

func (b builtin) arity() string {
	switch {
	case b.maxArgs < 0:
		return fmt.Sprintf("at least %d", b.minArgs)
	case b.minArgs == b.maxArgs:
		return fmt.Sprintf("exactly %d", b.minArgs)
	default:
		return fmt.Sprintf("between %d and %d", b.minArgs, b.maxArgs)
	}
}

// builtins is the function table, keyed by lowercase function name. ARM function names are
// case-insensitive.
var builtins = map[string]builtin{
	"concat":         {minArgs: 1, maxArgs: -1, eval: evalConcat},
	"format":         {minArgs: 1, maxArgs: -1, eval: evalFormat},
	"resourceid":     {minArgs: 2, maxArgs: -1, eval: evalResourceID},
	"subscription":   {minArgs: 0, maxArgs: 0, eval: evalSubscription},
	"resourcegroup":  {minArgs: 0, maxArgs: 0, eval: evalResourceGroup},
	"deployment":     {minArgs: 0, maxArgs: 0, eval: evalDeployment},
	"tolower":        {minArgs: 1, maxArgs: 1, eval: stringFunc(strings.ToLower)},
	"toupper":        {minArgs: 1, maxArgs: 1, eval: stringFunc(strings.ToUpper)},
	"trim":           {minArgs: 1, maxArgs: 1, eval: stringFunc(strings.TrimSpace)},
	"replace":        {minArgs: 3, maxArgs: 3, eval: evalReplace},
	"substring":      {minArgs: 2, maxArgs: 3, eval: evalSubstring},
	"length":         {minArgs: 1, maxArgs: 1, eval: evalLength},
	"split":          {minArgs: 2, maxArgs: 2, eval: evalSplit},
	"join":           {minArgs: 2, maxArgs: 2, eval: evalJoin},
	"first":          {minArgs: 1, maxArgs: 1, eval: evalFirst},
	"last":           {minArgs: 1, maxArgs: 1, eval: evalLast},
	"take":           {minArgs: 2, maxArgs: 2, eval: evalTake},
	"skip":           {minArgs: 2, maxArgs: 2, eval: evalSkip},
	"startswith":     {minArgs: 2, maxArgs: 2, eval: evalStartsWith},
	"endswith":       {minArgs: 2, maxArgs: 2, eval: evalEndsWith},
	"string":         {minArgs: 1, maxArgs: 1, eval: evalToString},
	"int":            {minArgs: 1, maxArgs: 1, eval: evalToInt},
	"bool":           {minArgs: 1, maxArgs: 1, eval: evalToBool},
	"add":            {minArgs: 2, maxArgs: 2, eval: intFunc(func(a, b int) (int, error) { return a + b, nil })},
	"sub":            {minArgs: 2, maxArgs: 2, eval: intFunc(func(a, b int) (int, error) { return a - b, nil })},
	"mul":            {minArgs: 2, maxArgs: 2, eval: intFunc(func(a, b int) (int, error) { return a * b, nil })},
	"div":            {minArgs: 2, maxArgs: 2, eval: intFunc(evalDiv)},
	"mod":            {minArgs: 2, maxArgs: 2, eval: intFunc(evalMod)},
	"min":            {minArgs: 1, maxArgs: -1, eval: evalMin},
	"max":            {minArgs: 1, maxArgs: -1, eval: evalMax},
	"equals":         {minArgs: 2, maxArgs: 2, eval: evalEquals},
	"not":            {minArgs: 1, maxArgs: 1, eval: evalNot},
	"and":            {minArgs: 2, maxArgs: -1, eval: evalAnd},
	"or":             {minArgs: 2, maxArgs: -1, eval: evalOr},
	"coalesce":       {minArgs: 1, maxArgs: -1, eval: evalCoalesce},
	"empty":          {minArgs: 1, maxArgs: 1, eval: evalEmpty},
	"contains":       {minArgs: 2, maxArgs: 2, eval: evalContains},
	"uniquestring":   {minArgs: 1, maxArgs: -1, eval: evalUniqueString},
	"guid":           {minArgs: 1, maxArgs: -1, eval: evalGuid},
	"newguid":        {minArgs: 0, maxArgs: 0, eval: evalNewGuid},
	"base64":         {minArgs: 1, maxArgs: 1, eval: evalBase64},
	"base64tostring": {minArgs: 1, maxArgs: 1, eval: evalBase64ToString},
	"uri":            {minArgs: 2, maxArgs: 2, eval: evalUri},
	"true":           {minArgs: 0, maxArgs: 0, eval: func(Scope, []any) (any, error) { return true, nil }},
	"false":          {minArgs: 0, maxArgs: 0, eval: func(Scope, []any) (any, error) { return false, nil }},
}

func argString(args []any, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string, got %T", i+1, args[i])
	}

	return s, nil
}

// argInt accepts expression integers as well as whole JSON numbers, which decode as float64.
func argInt(args []any, i int) (int, error) {
	switch t := args[i].(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("argument %d must be an integer, got %v", i+1, t)
		}
		return int(t), nil
	case json.Number:
		v, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %d must be an integer, got %v", i+1, t)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %d must be an integer, got %T", i+1, args[i])
	}
}

func argBool(args []any, i int) (bool, error) {
	b, ok := args[i].(bool)
	if !ok {
		return false, fmt.Errorf("argument %d must be a bool, got %T", i+1, args[i])
	}

	return b, nil
}

// stringify renders a scalar value the way ARM's string conversion does. Objects and arrays are
// rendered as compact JSON.
func stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), nil
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", fmt.Errorf("cannot convert null to a string")
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("cannot convert %T to a string: %w", v, err)
		}
		return string(encoded), nil
	}
}

func stringFunc(fn func(string) string) func(Scope, []any) (any, error) {
	return func(_ Scope, args []any) (any, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	}
}

func intFunc(fn func(a, b int) (int, error)) func(Scope, []any) (any, error) {
	return func(_ Scope, args []any) (any, error) {
		a, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argInt(args, 1)
		if err != nil {
			return nil, err
		}
		return fn(a, b)
	}
}

func evalDiv(a, b int) (int, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}

	return a / b, nil
}

func evalMod(a, b int) (int, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}

	return a % b, nil
}

// evalConcat concatenates strings or arrays. Mixing the two is an error; scalar arguments to a
// string concat are converted the way ARM converts them.
func evalConcat(_ Scope, args []any) (any, error) {
	if _, isArray := args[0].([]any); isArray {
		var combined []any
		for i, arg := range args {
			arr, ok := arg.([]any)
			if !ok {
				return nil, fmt.Errorf("argument %d must be an array when concatenating arrays", i+1)
			}
			combined = append(combined, arr...)
		}
		return combined, nil
	}

	var sb strings.Builder
	for i, arg := range args {
		if _, isArray := arg.([]any); isArray {
			return nil, fmt.Errorf("argument %d is an array but argument 1 is not", i+1)
		}
		s, err := stringify(arg)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}

	return sb.String(), nil
}

func evalFormat(_ Scope, args []any) (any, error) {
	format, err := argString(args, 0)
	if err != nil {
		return nil, err
	}

	result := format
	for i, arg := range args[1:] {
		s, err := stringify(arg)
		if err != nil {
			return nil, err
		}
		result = strings.ReplaceAll(result, fmt.Sprintf("{%d}", i), s)
	}

	return result, nil
}

// evalResourceID handles the variable-arity resourceId() signature: optional subscription id and
// resource group arguments precede the resource type, which is the first argument containing '/'.
func evalResourceID(scope Scope, args []any) (any, error) {
	strs := make([]string, len(args))
	for i := range args {
		s, err := argString(args, i)
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}

	typeIdx := -1
	for i, s := range strs {
		if strings.Contains(s, "/") {
			typeIdx = i
			break
		}
	}
	if typeIdx < 0 {
		return nil, fmt.Errorf("no resource type argument (expected a 'Namespace/type' value)")
	}
	if typeIdx+1 >= len(strs) {
		return nil, fmt.Errorf("resource type %q must be followed by at least one name", strs[typeIdx])
	}

	dep := scope.Deployment()
	subscriptionID := dep.SubscriptionID
	resourceGroup := dep.ResourceGroup

	switch typeIdx {
	case 0:
	case 1:
		resourceGroup = strs[0]
	case 2:
		subscriptionID = strs[0]
		resourceGroup = strs[1]
	default:
		return nil, fmt.Errorf("too many scope arguments before resource type %q", strs[typeIdx])
	}

	return azure.ResourceRID(subscriptionID, resourceGroup, strs[typeIdx], strs[typeIdx+1:]...), nil
}

func evalSubscription(scope Scope, _ []any) (any, error) {
	dep := scope.Deployment()
	return map[string]any{
		"id":             azure.SubscriptionRID(dep.SubscriptionID),
		"subscriptionId": dep.SubscriptionID,
	}, nil
}

func evalResourceGroup(scope Scope, _ []any) (any, error) {
	dep := scope.Deployment()
	return map[string]any{
		"id":       azure.ResourceGroupRID(dep.SubscriptionID, dep.ResourceGroup),
		"name":     dep.ResourceGroup,
		"location": dep.Location,
	}, nil
}

func evalDeployment(scope Scope, _ []any) (any, error) {
	return map[string]any{
		"name": scope.Deployment().Name,
	}, nil
}

func evalReplace(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	old, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	new, err := argString(args, 2)
	if err != nil {
		return nil, err
	}

	return strings.ReplaceAll(s, old, new), nil
}

func evalSubstring(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	start, err := argInt(args, 1)
	if err != nil {
		return nil, err
	}

	length := len(s) - start
	if len(args) == 3 {
		if length, err = argInt(args, 2); err != nil {
			return nil, err
		}
	}

	if start < 0 || length < 0 || start+length > len(s) {
		return nil, fmt.Errorf("index %d and length %d are out of range for a string of length %d", start, length, len(s))
	}

	return s[start : start+length], nil
}

func evalLength(_ Scope, args []any) (any, error) {
	switch t := args[0].(type) {
	case string:
		return len(t), nil
	case []any:
		return len(t), nil
	case map[string]any:
		return len(t), nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string, array or object, got %T", args[0])
	}
}

func evalSplit(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	delim, err := argString(args, 1)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(s, delim)
	result := make([]any, len(parts))
	for i, part := range parts {
		result[i] = part
	}

	return result, nil
}

func evalJoin(_ Scope, args []any) (any, error) {
	arr, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("argument 1 must be an array, got %T", args[0])
	}
	delim, err := argString(args, 1)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(arr))
	for i, item := range arr {
		s, err := stringify(item)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}

	return strings.Join(parts, delim), nil
}

func evalFirst(_ Scope, args []any) (any, error) {
	switch t := args[0].(type) {
	case string:
		if t == "" {
			return "", nil
		}
		return t[:1], nil
	case []any:
		if len(t) == 0 {
			return nil, fmt.Errorf("array is empty")
		}
		return t[0], nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string or array, got %T", args[0])
	}
}

func evalLast(_ Scope, args []any) (any, error) {
	switch t := args[0].(type) {
	case string:
		if t == "" {
			return "", nil
		}
		return t[len(t)-1:], nil
	case []any:
		if len(t) == 0 {
			return nil, fmt.Errorf("array is empty")
		}
		return t[len(t)-1], nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string or array, got %T", args[0])
	}
}

func evalTake(_ Scope, args []any) (any, error) {
	count, err := argInt(args, 1)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}

	switch t := args[0].(type) {
	case string:
		if count > len(t) {
			count = len(t)
		}
		return t[:count], nil
	case []any:
		if count > len(t) {
			count = len(t)
		}
		return t[:count], nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string or array, got %T", args[0])
	}
}

func evalSkip(_ Scope, args []any) (any, error) {
	count, err := argInt(args, 1)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}

	switch t := args[0].(type) {
	case string:
		if count > len(t) {
			count = len(t)
		}
		return t[count:], nil
	case []any:
		if count > len(t) {
			count = len(t)
		}
		return t[count:], nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string or array, got %T", args[0])
	}
}

func evalStartsWith(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	prefix, err := argString(args, 1)
	if err != nil {
		return nil, err
	}

	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix)), nil
}

func evalEndsWith(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	suffix, err := argString(args, 1)
	if err != nil {
		return nil, err
	}

	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix)), nil
}

func evalToString(_ Scope, args []any) (any, error) {
	return stringify(args[0])
}

func evalToInt(_ Scope, args []any) (any, error) {
	if s, ok := args[0].(string); ok {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to an integer", s)
		}
		return v, nil
	}

	return argInt(args, 0)
}

func evalToBool(_ Scope, args []any) (any, error) {
	switch t := args[0].(type) {
	case bool:
		return t, nil
	case string:
		v, err := strconv.ParseBool(strings.ToLower(t))
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to a bool", t)
		}
		return v, nil
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a bool", args[0])
	}
}

func evalMin(_ Scope, args []any) (any, error) {
	return evalMinMax(args, func(best, v int) bool { return v < best })
}

func evalMax(_ Scope, args []any) (any, error) {
	return evalMinMax(args, func(best, v int) bool { return v > best })
}

// evalMinMax accepts either a single array of integers or multiple integer arguments.
func evalMinMax(args []any, better func(best, v int) bool) (any, error) {
	values := args
	if arr, ok := args[0].([]any); ok && len(args) == 1 {
		values = arr
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("array is empty")
	}

	best, err := argInt(values, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(values); i++ {
		v, err := argInt(values, i)
		if err != nil {
			return nil, err
		}
		if better(best, v) {
			best = v
		}
	}

	return best, nil
}

// valuesEqual compares two evaluated values. Numeric values are compared by magnitude so that an
// expression literal (int) compares equal to a JSON-decoded number (float64).
func valuesEqual(a, b any) bool {
	an, aIsNum := toFloat(a)
	bn, bIsNum := toFloat(b)
	if aIsNum && bIsNum {
		return an == bn
	}

	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
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

func evalEquals(_ Scope, args []any) (any, error) {
	return valuesEqual(args[0], args[1]), nil
}

func evalNot(_ Scope, args []any) (any, error) {
	b, err := argBool(args, 0)
	if err != nil {
		return nil, err
	}

	return !b, nil
}

func evalAnd(_ Scope, args []any) (any, error) {
	for i := range args {
		b, err := argBool(args, i)
		if err != nil {
			return nil, err
		}
		if !b {
			return false, nil
		}
	}

	return true, nil
}

func evalOr(_ Scope, args []any) (any, error) {
	for i := range args {
		b, err := argBool(args, i)
		if err != nil {
			return nil, err
		}
		if b {
			return true, nil
		}
	}

	return false, nil
}

func evalCoalesce(_ Scope, args []any) (any, error) {
	for _, arg := range args {
		if arg != nil {
			return arg, nil
		}
	}

	return nil, nil
}

func evalEmpty(_ Scope, args []any) (any, error) {
	switch t := args[0].(type) {
	case nil:
		return true, nil
	case string:
		return t == "", nil
	case []any:
		return len(t) == 0, nil
	case map[string]any:
		return len(t) == 0, nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string, array or object, got %T", args[0])
	}
}

func evalContains(_ Scope, args []any) (any, error) {
	switch t := args[0].(type) {
	case string:
		item, err := argString(args, 1)
		if err != nil {
			return nil, err
		}
		return strings.Contains(t, item), nil
	case []any:
		for _, v := range t {
			if valuesEqual(v, args[1]) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		key, err := argString(args, 1)
		if err != nil {
			return nil, err
		}
		for k := range t {
			if strings.EqualFold(k, key) {
				return true, nil
			}
		}
		return false, nil
	default:
		return nil, fmt.Errorf("argument 1 must be a string, array or object, got %T", args[0])
	}
}

const uniqueStringAlphabet = "abcdefghijklmnopqrstuvwxyz234567"

// evalUniqueString produces a deterministic 13 character identifier hash from its arguments. The
// value is stable across runs but is not the same value Azure Resource Manager computes for the
// same inputs (ARM uses an undocumented murmur variant).
func evalUniqueString(_ Scope, args []any) (any, error) {
	h := fnv.New64a()
	for i := range args {
		s, err := argString(args, i)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			_, _ = h.Write([]byte{'-'})
		}
		_, _ = h.Write([]byte(s))
	}

	v := h.Sum64()
	var out [13]byte
	for i := range out {
		out[i] = uniqueStringAlphabet[v&31]
		v >>= 5
	}

	return string(out[:]), nil
}

// evalGuid produces a deterministic (version 5) UUID from its arguments.
func evalGuid(_ Scope, args []any) (any, error) {
	parts := make([]string, len(args))
	for i := range args {
		s, err := argString(args, i)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "-"))).String(), nil
}

// evalNewGuid produces a fresh random UUID. ARM only permits newGuid() inside parameter default
// values; everywhere else it would make binding non-deterministic, so only scopes that opt in
// through NewGuidAllowed may call it.
func evalNewGuid(scope Scope, _ []any) (any, error) {
	allower, ok := scope.(interface{ NewGuidAllowed() bool })
	if !ok || !allower.NewGuidAllowed() {
		return nil, fmt.Errorf("only allowed in parameter default values")
	}

	return uuid.NewString(), nil
}

func evalBase64(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}

	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func evalBase64ToString(_ Scope, args []any) (any, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 value: %w", err)
	}

	return string(decoded), nil
}

func evalUri(_ Scope, args []any) (any, error) {
	baseUri, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	relative, err := argString(args, 1)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseUri)
	if err != nil {
		return nil, fmt.Errorf("invalid base uri %q: %w", baseUri, err)
	}
	rel, err := url.Parse(relative)
	if err != nil {
		return nil, fmt.Errorf("invalid relative uri %q: %w", relative, err)
	}

	return base.ResolveReference(rel).String(), nil
}
