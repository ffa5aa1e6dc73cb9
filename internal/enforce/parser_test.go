package enforce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSectionBasic(t *testing.T) {
	exprs, warnings, err := ParseSection(`namespace="demo",pod!="x"`, promqlSyntax)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, exprs, 2)
	assert.Equal(t, "namespace", exprs[0].Name)
	assert.Equal(t, OpEqual, exprs[0].Op)
	assert.Equal(t, "demo", exprs[0].Value)
	assert.True(t, exprs[0].Quoted)
	assert.Equal(t, "pod", exprs[1].Name)
	assert.Equal(t, OpNotEqual, exprs[1].Op)
	assert.Equal(t, "x", exprs[1].Value)
}

func TestParseSectionRegexPromotion(t *testing.T) {
	exprs, _, err := ParseSection(`namespace="^kube-.*"`, promqlSyntax)
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, OpRegexMatch, exprs[0].Op)
	assert.Equal(t, "^kube-.*", exprs[0].Value)
	assert.True(t, exprs[0].rewritten)

	exprs, _, err = ParseSection(`namespace!="^kube-.*"`, promqlSyntax)
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, OpNotRegex, exprs[0].Op)
}

func TestParseSectionTraceQLPassthroughAndIntrinsic(t *testing.T) {
	exprs, warnings, err := ParseSection(`nestedSetParent<0 && true && resource.service.name != nil`, traceqlSyntax)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, exprs, 3)

	assert.True(t, exprs[0].Passthrough)
	assert.True(t, exprs[0].Intrinsic)
	assert.Equal(t, "nestedSetParent", exprs[0].Name)
	assert.Equal(t, "nestedSetParent<0", strings.TrimSpace(exprs[0].Original))

	assert.True(t, exprs[1].Passthrough)
	assert.Equal(t, "true", strings.TrimSpace(exprs[1].Original))

	assert.Equal(t, "resource.service.name", exprs[2].Name)
	assert.Equal(t, OpNotEqual, exprs[2].Op)
	assert.Equal(t, "nil", exprs[2].Value)
}

func TestParseSectionUnclosedQuoteIsUsageError(t *testing.T) {
	_, _, err := ParseSection(`namespace="demo`, promqlSyntax)
	require.Error(t, err)
	var usageErr *UsageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestParseSectionInvalidBangFormDropped(t *testing.T) {
	exprs, warnings, err := ParseSection(`!namespace=demo`, promqlSyntax)
	require.NoError(t, err)
	assert.Empty(t, exprs)
	require.Len(t, warnings, 1)
}

func TestParseSectionMalformedPairDropsOnlyThatPair(t *testing.T) {
	exprs, warnings, err := ParseSection(`namespace="demo",garbage`, promqlSyntax)
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, "namespace", exprs[0].Name)
	require.Len(t, warnings, 1)
}
