// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package armexpr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScope struct {
	parameters map[string]any
	variables  map[string]any
	deployment DeploymentScope
}

func (s *testScope) Parameter(name string) (any, error) {
	if v, has := s.parameters[name]; has {
		return v, nil
	}
	return nil, fmt.Errorf("parameter '%s' is not declared", name)
}

func (s *testScope) Variable(name string) (any, error) {
	if v, has := s.variables[name]; has {
		return v, nil
	}
	return nil, fmt.Errorf("variable '%s' is not declared", name)
}

func (s *testScope) Deployment() DeploymentScope {
	return s.deployment
}

func newTestScope() *testScope {
	return &testScope{
		parameters: map[string]any{
			"vmName":    "box1",
			"count":     3,
			"enabled":   true,
			"tags":      map[string]any{"env": "dev"},
			"zoneNames": []any{"zone1", "zone2"},
		},
		variables: map[string]any{
			"nicName": "box1-nic",
		},
		deployment: DeploymentScope{
			SubscriptionID: "sub-id",
			ResourceGroup:  "rg-test",
			Location:       "eastus2",
			Name:           "deploy-1",
		},
	}
}

func TestEvalString(t *testing.T) {
	scope := newTestScope()

	cases := []struct {
		name     string
		src      string
		expected any
	}{
		{
			name:     "PlainStringPassesThrough",
			src:      "just a string",
			expected: "just a string",
		},
		{
			name:     "EscapedBracketUnescapes",
			src:      "[[not an expression]",
			expected: "[not an expression]",
		},
		{
			name:     "ConcatParameterAndLiteral",
			src:      "[concat(parameters('vmName'), '-nic')]",
			expected: "box1-nic",
		},
		{
			name:     "VariableReference",
			src:      "[variables('nicName')]",
			expected: "box1-nic",
		},
		{
			name:     "NonStringParameterKeepsType",
			src:      "[parameters('count')]",
			expected: 3,
		},
		{
			name:     "Format",
			src:      "[format('{0}-{1}', parameters('vmName'), 'osdisk')]",
			expected: "box1-osdisk",
		},
		{
			name:     "ResourceGroupLocation",
			src:      "[resourceGroup().location]",
			expected: "eastus2",
		},
		{
			name:     "PropertyAccessIsCaseInsensitive",
			src:      "[resourceGroup().Location]",
			expected: "eastus2",
		},
		{
			name:     "FunctionNamesAreCaseInsensitive",
			src:      "[CONCAT('a', toUpper('b'))]",
			expected: "aB",
		},
		{
			name: "ResourceIdInDeploymentScope",
			src:  "[resourceId('Microsoft.Network/networkInterfaces', variables('nicName'))]",
			expected: "/subscriptions/sub-id/resourceGroups/rg-test" +
				"/providers/Microsoft.Network/networkInterfaces/box1-nic",
		},
		{
			name: "ResourceIdWithResourceGroupArgument",
			src:  "[resourceId('other-rg', 'Microsoft.Storage/storageAccounts', 'stacct')]",
			expected: "/subscriptions/sub-id/resourceGroups/other-rg" +
				"/providers/Microsoft.Storage/storageAccounts/stacct",
		},
		{
			name: "ResourceIdWithSubscriptionAndResourceGroupArguments",
			src:  "[resourceId('other-sub', 'other-rg', 'Microsoft.Storage/storageAccounts', 'stacct')]",
			expected: "/subscriptions/other-sub/resourceGroups/other-rg" +
				"/providers/Microsoft.Storage/storageAccounts/stacct",
		},
		{
			name: "ResourceIdNestedType",
			src:  "[resourceId('Microsoft.Sql/servers/databases', 'sqlsrv', 'appdb')]",
			expected: "/subscriptions/sub-id/resourceGroups/rg-test" +
				"/providers/Microsoft.Sql/servers/sqlsrv/databases/appdb",
		},
		{
			name:     "Arithmetic",
			src:      "[add(mul(parameters('count'), 10), 2)]",
			expected: 32,
		},
		{
			name:     "ConditionalTrue",
			src:      "[if(equals(parameters('count'), 3), 'three', 'other')]",
			expected: "three",
		},
		{
			name:     "ConditionalSkipsUnchosenBranch",
			src:      "[if(equals(parameters('count'), 0), 'none', div(12, parameters('count')))]",
			expected: 4,
		},
		{
			name:     "ConditionalTrueSkipsFalseBranch",
			src:      "[if(true(), 'safe', div(1, 0))]",
			expected: "safe",
		},
		{
			name:     "ConditionalFalseSkipsTrueBranch",
			src:      "[if(false(), div(1, 0), 'other')]",
			expected: "other",
		},
		{
			name:     "StringOperations",
			src:      "[toLower(substring('ABCDEF', 0, 3))]",
			expected: "abc",
		},
		{
			name:     "SplitAndJoin",
			src:      "[join(split('a,b,c', ','), '-')]",
			expected: "a-b-c",
		},
		{
			name:     "Base64RoundTrip",
			src:      "[base64ToString(base64('hello'))]",
			expected: "hello",
		},
		{
			name:     "Uri",
			src:      "[uri('https://example.com/base/', 'nested/azuredeploy.json')]",
			expected: "https://example.com/base/nested/azuredeploy.json",
		},
		{
			name:     "ContainsArray",
			src:      "[contains(parameters('zoneNames'), 'zone2')]",
			expected: true,
		},
		{
			name:     "EmptyString",
			src:      "[empty('')]",
			expected: true,
		},
		{
			name:     "DeploymentName",
			src:      "[deployment().name]",
			expected: "deploy-1",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := EvalString(c.src, scope)
			require.NoError(t, err)
			assert.Equal(t, c.expected, actual)
		})
	}
}

func TestEvalStringErrors(t *testing.T) {
	scope := newTestScope()

	cases := []struct {
		name     string
		src      string
		contains string
	}{
		{
			name:     "UnknownFunction",
			src:      "[frobnicate('a')]",
			contains: "unknown function 'frobnicate'",
		},
		{
			name:     "WrongArity",
			src:      "[toLower('a', 'b')]",
			contains: "expects exactly 1",
		},
		{
			name:     "DivisionByZero",
			src:      "[div(1, 0)]",
			contains: "division by zero",
		},
		{
			name:     "PropertyOfNonObject",
			src:      "[concat('a', 'b').length]",
			contains: "non-object",
		},
		{
			name:     "UndeclaredParameter",
			src:      "[parameters('missing')]",
			contains: "'missing'",
		},
		{
			name:     "SubstringOutOfRange",
			src:      "[substring('abc', 1, 5)]",
			contains: "out of range",
		},
		{
			name:     "ConditionalNonBoolCondition",
			src:      "[if('yes', 'a', 'b')]",
			contains: "must be a bool",
		},
		{
			name:     "ConditionalWrongArity",
			src:      "[if(true(), 'a')]",
			contains: "expects exactly 3",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := EvalString(c.src, scope)
			require.Error(t, err)
			assert.ErrorContains(t, err, c.contains)
		})
	}
}

func TestEvalValueRecursesIntoObjectsAndArrays(t *testing.T) {
	scope := newTestScope()

	value := map[string]any{
		"name": "[variables('nicName')]",
		"properties": map[string]any{
			"count": "[parameters('count')]",
			"list":  []any{"[parameters('vmName')]", "literal"},
		},
	}

	resolved, err := EvalValue(value, scope)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name": "box1-nic",
		"properties": map[string]any{
			"count": 3,
			"list":  []any{"box1", "literal"},
		},
	}, resolved)

	// the input value is never mutated
	assert.Equal(t, "[variables('nicName')]", value["name"])
}

func TestUniqueStringIsDeterministic(t *testing.T) {
	scope := newTestScope()

	first, err := EvalString("[uniqueString('sub-id', 'rg-test')]", scope)
	require.NoError(t, err)
	second, err := EvalString("[uniqueString('sub-id', 'rg-test')]", scope)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 13)

	other, err := EvalString("[uniqueString('sub-id', 'rg-other')]", scope)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

// defaultValueScope simulates the scope parameter default evaluation runs under, where
// newGuid() is legal.
type defaultValueScope struct {
	testScope
}

func (s *defaultValueScope) NewGuidAllowed() bool {
	return true
}

func TestNewGuidOnlyAllowedInDefaultValueScopes(t *testing.T) {
	_, err := EvalString("[newGuid()]", newTestScope())
	require.Error(t, err)
	assert.ErrorContains(t, err, "only allowed in parameter default values")

	value, err := EvalString("[newGuid()]", &defaultValueScope{testScope: *newTestScope()})
	require.NoError(t, err)
	assert.Len(t, value, 36)
}

func TestGuidIsDeterministic(t *testing.T) {
	scope := newTestScope()

	first, err := EvalString("[guid('contributor', 'box1')]", scope)
	require.NoError(t, err)
	second, err := EvalString("[guid('contributor', 'box1')]", scope)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 36)
}

func TestCollectReferences(t *testing.T) {
	node, err := Parse("concat(parameters('vmName'), variables('nicName'), parameters(variables('indirect')))")
	require.NoError(t, err)

	refs := CollectReferences(node)
	assert.Equal(t, []string{"vmName"}, refs.Parameters)
	// the literal-argument variables() calls are collected; the computed parameters() call is not
	assert.Equal(t, []string{"nicName", "indirect"}, refs.Variables)
}

func TestIsKnownFunction(t *testing.T) {
	assert.True(t, IsKnownFunction("concat"))
	assert.True(t, IsKnownFunction("ResourceId"))
	assert.True(t, IsKnownFunction("parameters"))
	assert.False(t, IsKnownFunction("frobnicate"))
}
