package enforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmptyEqualSingleAllowedValue(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpEqual, Value: ""}
	out := Normalize(expr, ConstraintMap{"namespace": {"demo"}})
	assert.Equal(t, OpEqual, out.Op)
	assert.Equal(t, "demo", out.Value)
}

func TestNormalizeEmptyEqualMultipleAllowedValues(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpEqual, Value: ""}
	out := Normalize(expr, ConstraintMap{"namespace": {"demo", "prod"}})
	assert.Equal(t, OpRegexMatch, out.Op)
	assert.Equal(t, ".+", out.Value)
}

func TestNormalizeEmptyNotEqualPassesThrough(t *testing.T) {
	expr := LabelExpression{Name: "container", Op: OpNotEqual, Value: "", Original: `container!=""`}
	out := Normalize(expr, ConstraintMap{"container": {"app"}})
	assert.Equal(t, OpNotEqual, out.Op)
	assert.Equal(t, "", out.Value)
	assert.Equal(t, `container!=""`, out.Original)
}

func TestNormalizeWildcardValueRewritesToDotStar(t *testing.T) {
	for _, op := range []Operator{OpEqual, OpNotEqual, OpRegexMatch} {
		expr := LabelExpression{Name: "service", Op: op, Value: "*"}
		out := Normalize(expr, ConstraintMap{})
		assert.Equal(t, OpRegexMatch, out.Op)
		assert.Equal(t, ".*", out.Value)
	}
}

func TestNormalizeNotRegexNeverTouched(t *testing.T) {
	expr := LabelExpression{Name: "namespace", Op: OpNotRegex, Value: "*"}
	out := Normalize(expr, ConstraintMap{"namespace": {"demo"}})
	assert.Equal(t, OpNotRegex, out.Op)
	assert.Equal(t, "*", out.Value)
}

func TestNormalizePassthroughIntrinsicReservedUntouched(t *testing.T) {
	pt := LabelExpression{Passthrough: true, Original: "true"}
	assert.Equal(t, pt, Normalize(pt, ConstraintMap{}))

	intrinsic := LabelExpression{Name: "status", Op: OpEqual, Value: "", Intrinsic: true}
	assert.Equal(t, intrinsic, Normalize(intrinsic, ConstraintMap{}))

	reserved := LabelExpression{Name: "labels", Op: OpEqual, Value: ""}
	assert.Equal(t, reserved, Normalize(reserved, ConstraintMap{}))
}
