// Package enforce implements the query enforcement core: it parses a
// backend-specific query's label-selector sections, constrains them against
// a per-identity ConstraintMap, and serializes the result back into the
// original query language. See SPEC_FULL.md section 1 for the component
// breakdown; this file holds the data model (SPEC_FULL.md/spec.md section 3).
package enforce

// Operator is one of the four label-match operators a selector can use.
type Operator string

const (
	OpEqual      Operator = "="
	OpNotEqual   Operator = "!="
	OpRegexMatch Operator = "=~"
	OpNotRegex   Operator = "!~"
)

// Language identifies which backend query grammar a query belongs to.
type Language int

const (
	PromQL Language = iota
	LogQL
	TraceQL
)

func (l Language) String() string {
	switch l {
	case PromQL:
		return "promql"
	case LogQL:
		return "logql"
	case TraceQL:
		return "traceql"
	default:
		return "unknown"
	}
}

// LabelExpression is the atomic unit the pipeline operates on: one
// `name op value` term inside a selector.
type LabelExpression struct {
	Name        string
	Op          Operator
	Value       string
	Quoted      bool
	Original    string
	Passthrough bool
	Intrinsic   bool

	// rewritten marks that Op/Value no longer match what Original shows,
	// so the serializer must reconstruct rather than echo Original. Parser
	// sets it on regex-operator promotion; normalizer and enhancer set it
	// whenever they produce a different operator or value.
	rewritten bool
}

// LabelSection is a contiguous `{ ... }` region of a query.
type LabelSection struct {
	Start int
	End   int
	Inner string
}

// ConstraintMap maps a label name to the set of values (or value patterns)
// an identity may query for that label. Reserved keys (see ReservedKeys)
// carry meta-policy and are never enforced as labels.
type ConstraintMap map[string][]string

// QueryContext bundles the orchestrator's input.
type QueryContext struct {
	Query       string
	Constraints ConstraintMap
	Language    Language
}

// EnhancementResult is the orchestrator's successful outcome.
type EnhancementResult struct {
	EnhancedQuery    string
	AddedConstraints []string
}
