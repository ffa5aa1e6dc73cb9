package enforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceEqualLiteralAllowed(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpEqual, Value: "demo"}
	out, keep, err := Enhance(expr, ConstraintMap{"namespace": {"demo", "prod"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpEqual, out.Op)
	assert.Equal(t, "demo", out.Value)
}

func TestEnhanceEqualLiteralForbidden(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpEqual, Value: "forbidden"}
	_, _, err := Enhance(expr, ConstraintMap{"namespace": {"demo", "prod"}})
	var unauth *Unauthorized
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "forbidden", unauth.Value)
	assert.Equal(t, "Unauthorized label value: forbidden", err.Error())
}

func TestEnhanceEqualNoConstraintPassesThrough(t *testing.T) {
	expr := LabelExpression{Name: "pod", Op: OpEqual, Value: "anything"}
	out, keep, err := Enhance(expr, ConstraintMap{})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, "anything", out.Value)
}

func TestEnhanceEqualWildcardConstraintPassesThrough(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpEqual, Value: "anything"}
	out, keep, err := Enhance(expr, ConstraintMap{"namespace": {"*"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, "anything", out.Value)
}

func TestEnhanceEqualMatchesFullRegexInAV(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpEqual, Value: "kube-system"}
	out, keep, err := Enhance(expr, ConstraintMap{"namespace": {"^kube-.*"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, "kube-system", out.Value)
}

func TestEnhanceWildcardValueExpandsViaAV(t *testing.T) {
	expr := LabelExpression{Name: "service", Op: OpRegexMatch, Value: ".*"}
	out, keep, err := Enhance(expr, ConstraintMap{"service": {"order-service", "stock-service"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpRegexMatch, out.Op)
	assert.Contains(t, []string{"order-service|stock-service", "stock-service|order-service"}, out.Value)
}

func TestEnhanceWildcardValueNoConstraintExpandsToDotStar(t *testing.T) {
	expr := LabelExpression{Name: "service", Op: OpRegexMatch, Value: ".*"}
	out, keep, err := Enhance(expr, ConstraintMap{})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, ".*", out.Value)
}

func TestEnhanceNotEqualEmptyValuePassesThrough(t *testing.T) {
	expr := LabelExpression{Name: "container", Op: OpNotEqual, Value: "", Original: `container!=""`}
	out, keep, err := Enhance(expr, ConstraintMap{"container": {"app", "sidecar", "init"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, `container!=""`, out.Original)
	assert.False(t, out.rewritten)
}

func TestEnhanceNotEqualSpecificConstraintsSingleRemaining(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpNotEqual, Value: "demo"}
	out, keep, err := Enhance(expr, ConstraintMap{"namespace": {"demo", "prod"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpEqual, out.Op)
	assert.Equal(t, "prod", out.Value)
}

func TestEnhanceNotEqualExcludesAllRemaining(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpNotEqual, Value: "demo"}
	_, _, err := Enhance(expr, ConstraintMap{"namespace": {"demo"}})
	var unauth *Unauthorized
	require.ErrorAs(t, err, &unauth)
}

func TestEnhanceNotRegexSpecificConstraintsCollapsesToEquals(t *testing.T) {
	expr := LabelExpression{Name: "k8s_namespace_name", Op: OpNotRegex, Value: "observability"}
	out, keep, err := Enhance(expr, ConstraintMap{"k8s_namespace_name": {"observability", "demo"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpEqual, out.Op)
	assert.Equal(t, "demo", out.Value)
}

func TestEnhanceRegexMatchNoMatchIsUnauthorized(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpRegexMatch, Value: "^zzz$"}
	_, _, err := Enhance(expr, ConstraintMap{"namespace": {"demo", "prod"}})
	var unauth *Unauthorized
	require.ErrorAs(t, err, &unauth)
}

func TestEnhanceRegexMatchNoConstraintRebuildsFromOriginal(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpRegexMatch, Value: "demo.*", Original: `namespace="demo.*"`, rewritten: true}
	out, keep, err := Enhance(expr, ConstraintMap{})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.True(t, out.rewritten)
}

func TestEnhanceNotRegexAVNoneUnchanged(t *testing.T) {
	expr := LabelExpression{Name: "pod", Op: OpNotRegex, Value: "^web-.*", Original: `pod!~"^web-.*"`}
	out, keep, err := Enhance(expr, ConstraintMap{})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpNotRegex, out.Op)
	assert.False(t, out.rewritten)
}

func TestEnhanceNotRegexEmptyAVDropsExpression(t *testing.T) {
	expr := LabelExpression{Name: "pod", Op: OpNotRegex, Value: "^web-.*"}
	_, keep, err := Enhance(expr, ConstraintMap{"pod": {}})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestEnhanceNotRegexWildcardConstraintsUnchanged(t *testing.T) {
	expr := LabelExpression{Name: "pod", Op: OpNotRegex, Value: "^web-.*", Original: `pod!~"^web-.*"`}
	out, keep, err := Enhance(expr, ConstraintMap{"pod": {"*"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpNotRegex, out.Op)
}

func TestEnhanceNotRegexSpecificConstraintsNarrows(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpNotRegex, Value: "^d.*"}
	out, keep, err := Enhance(expr, ConstraintMap{"namespace": {"demo", "prod", "stage"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, OpRegexMatch, out.Op)
	assert.Contains(t, []string{"prod|stage", "stage|prod"}, out.Value)
}

func TestEnhanceNotRegexExcludesAllIsUnauthorized(t *testing.T) {
	// "!~" has no wildcard-value expand path (spec.md section 4.5's
	// pre-decision explicitly excludes it); a ".*" pattern here excludes
	// every member of a specific allow-list, which is a violation.
	expr := LabelExpression{Name: "namespace", Op: OpNotRegex, Value: ".*"}
	_, _, err := Enhance(expr, ConstraintMap{"namespace": {"demo"}})
	var unauth *Unauthorized
	require.ErrorAs(t, err, &unauth)
}

func TestEnhancePassthroughAndIntrinsicUntouched(t *testing.T) {
	pt := LabelExpression{Passthrough: true, Original: "true"}
	out, keep, err := Enhance(pt, ConstraintMap{})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, pt, out)

	intrinsic := LabelExpression{Name: "status", Op: OpEqual, Value: "ok", Intrinsic: true, Original: `status=ok`}
	out, keep, err = Enhance(intrinsic, ConstraintMap{"status": {"forbidden-value"}})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, intrinsic, out)
}

func TestBuildAlternationDedupesAndConvertsWildcards(t *testing.T) {
	got := BuildAlternation([]string{"demo", "demo", "", "prod"})
	assert.Contains(t, []string{"demo|prod", "prod|demo"}, got)

	got = BuildAlternation([]string{"*"})
	assert.Equal(t, ".*", got)
}

func TestRegexMatchesFullMalformedPatternRejects(t *testing.T) {
	assert.False(t, regexMatchesFull("[unterminated", "anything"))
}
