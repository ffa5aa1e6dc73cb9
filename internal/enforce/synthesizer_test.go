package enforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeSkipsReservedAndPresentAndWildcard(t *testing.T) {
	constraints := ConstraintMap{
		"labels":    {"*"},
		"namespace": {"demo"},
		"service":   {"*"},
	}
	present := map[string]bool{"namespace": true}
	out := Synthesize(sortedKeys(constraints), present, constraints)
	assert.Empty(t, out)
}

func TestSynthesizeSingleValueUsesRegexMatch(t *testing.T) {
	constraints := ConstraintMap{"namespace": {"demo"}}
	out := Synthesize(sortedKeys(constraints), nil, constraints)
	require.Len(t, out, 1)
	assert.Equal(t, "namespace", out[0].Name)
	assert.Equal(t, OpRegexMatch, out[0].Op)
	assert.Equal(t, "demo", out[0].Value)
}

func TestSynthesizeSingleValueWithOperatorPrefix(t *testing.T) {
	constraints := ConstraintMap{"k8s_namespace_name": {"!~^kube-.*"}}
	out := Synthesize(sortedKeys(constraints), nil, constraints)
	require.Len(t, out, 1)
	assert.Equal(t, OpNotRegex, out[0].Op)
	assert.Equal(t, "^kube-.*", out[0].Value)
}

func TestSynthesizeMultipleValuesBuildsAlternation(t *testing.T) {
	constraints := ConstraintMap{"namespace": {"demo", "prod"}}
	out := Synthesize(sortedKeys(constraints), nil, constraints)
	require.Len(t, out, 1)
	assert.Equal(t, OpRegexMatch, out[0].Op)
	assert.Contains(t, []string{"demo|prod", "prod|demo"}, out[0].Value)
}

func TestSynthesizeSkipsEmptyAllowList(t *testing.T) {
	constraints := ConstraintMap{"namespace": {}}
	out := Synthesize(sortedKeys(constraints), nil, constraints)
	assert.Empty(t, out)
}
