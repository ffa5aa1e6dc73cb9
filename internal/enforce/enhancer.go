package enforce

import (
	"regexp"
	"strings"
)

// avState classifies a label's constraint-map entry for dispatch purposes
// (spec.md section 4.5).
type avState int

const (
	avNone     avState = iota // key absent from the constraint map: no policy for this label
	avEmpty                   // key present, zero allowed values: "no value allowed"
	avWildcard                // key present, contains a wildcard pattern or a '*' glob: no enforcement needed
	avSpecific                // key present, a concrete non-wildcard allow-list
)

func classify(name string, constraints ConstraintMap) (avState, []string) {
	av, present := constraints[name]
	if !present {
		return avNone, nil
	}
	if len(av) == 0 {
		return avEmpty, av
	}
	if hasWildcardConstraint(av) {
		return avWildcard, av
	}
	return avSpecific, av
}

// hasWildcardConstraint is spec.md section 4.5's "wildcard-constraints":
// broader than pattern.go's ContainsWildcardValues, it also counts any
// glob containing '*'. A full regex that merely uses '*' as a quantifier
// (e.g. "^kube-.*") is not a glob and does not count here — it is a
// specific-constraints member matched via regexMatchesFull instead.
func hasWildcardConstraint(av []string) bool {
	for _, v := range av {
		if IsWildcardPattern(v) {
			return true
		}
		if strings.Contains(v, "*") && !IsFullRegexPattern(v) {
			return true
		}
	}
	return false
}

// Enhance applies per-operator enforcement to a single expression (spec.md
// section 4.5). keep reports whether the expression survives at all — a
// "!~" expression against an empty allow-list is dropped, not an error.
func Enhance(expr LabelExpression, constraints ConstraintMap) (result LabelExpression, keep bool, err error) {
	if expr.Passthrough || expr.Intrinsic {
		return expr, true, nil
	}
	if ReservedKeys[expr.Name] {
		return expr, true, nil
	}

	state, av := classify(expr.Name, constraints)

	switch expr.Op {
	case OpEqual:
		return enhanceEqual(expr, state, av)
	case OpNotEqual:
		return enhanceNotEqual(expr, state, av)
	case OpRegexMatch:
		return enhanceRegexMatch(expr, state, av)
	case OpNotRegex:
		return enhanceNotRegex(expr, state, av)
	default:
		return expr, false, &EnhancementFailure{Reason: "unknown operator " + string(expr.Op)}
	}
}

func enhanceEqual(expr LabelExpression, state avState, av []string) (LabelExpression, bool, error) {
	if IsEmptyOrWildcard(expr.Value) {
		return expandViaAV(expr, state, av), true, nil
	}
	switch state {
	case avNone, avWildcard:
		return expr, true, nil
	default: // avEmpty or avSpecific: empty allow-list denies every literal value
		if containsLiteral(av, expr.Value) {
			return expr, true, nil
		}
		if matchesAnyFullRegex(av, expr.Value) {
			return expr, true, nil
		}
		return expr, false, &Unauthorized{Value: expr.Value}
	}
}

func enhanceNotEqual(expr LabelExpression, state avState, av []string) (LabelExpression, bool, error) {
	if expr.Value == "" {
		return expr, true, nil
	}
	if IsWildcardPattern(expr.Value) {
		return expandViaAV(expr, state, av), true, nil
	}
	if state != avSpecific {
		return expr, true, nil
	}
	remaining := removeValue(av, expr.Value)
	if len(remaining) == 0 {
		return expr, false, &Unauthorized{Value: expr.Value}
	}
	return singletonOrAlternation(expr, remaining), true, nil
}

func enhanceRegexMatch(expr LabelExpression, state avState, av []string) (LabelExpression, bool, error) {
	if IsEmptyOrWildcard(expr.Value) {
		return expandViaAV(expr, state, av), true, nil
	}
	switch state {
	case avNone, avWildcard:
		// Rebuild is required even though nothing else changes: parse-time
		// operator promotion may mean the original text still shows "=".
		expr.rewritten = true
		return expr, true, nil
	default: // avEmpty or avSpecific: empty allow-list denies every pattern
		matching := matchingValues(av, expr.Value)
		if len(matching) == 0 {
			return expr, false, &Unauthorized{Value: expr.Value}
		}
		return singletonOrAlternation(expr, matching), true, nil
	}
}

func enhanceNotRegex(expr LabelExpression, state avState, av []string) (LabelExpression, bool, error) {
	switch state {
	case avNone:
		return expr, true, nil
	case avEmpty:
		return expr, false, nil
	case avWildcard:
		return expr, true, nil
	default: // avSpecific
		remaining := nonMatchingValues(av, expr.Value)
		if len(remaining) == 0 {
			return expr, false, &Unauthorized{Value: expr.Value}
		}
		return singletonOrAlternation(expr, remaining), true, nil
	}
}

func expandViaAV(expr LabelExpression, state avState, av []string) LabelExpression {
	expr.Op = OpRegexMatch
	if state == avNone || state == avEmpty {
		expr.Value = ".*"
	} else if alt := BuildAlternation(av); alt != "" {
		expr.Value = alt
	} else {
		expr.Value = ".*"
	}
	expr.rewritten = true
	return expr
}

// singletonOrAlternation collapses a result set to a single "=" expression
// when only one value survives, else builds a "=~" alternation (spec.md
// section 4.5).
func singletonOrAlternation(expr LabelExpression, set []string) LabelExpression {
	deduped := dedupPreserve(set)
	if len(deduped) == 1 {
		v := deduped[0]
		if IsWildcardPattern(v) {
			expr.Op = OpRegexMatch
			expr.Value = ConvertWildcardToRegex(v)
		} else {
			expr.Op = OpEqual
			expr.Value = v
		}
		expr.rewritten = true
		return expr
	}
	expr.Op = OpRegexMatch
	expr.Value = BuildAlternation(deduped)
	expr.rewritten = true
	return expr
}

// BuildAlternation joins deduplicated, non-empty values with '|'. Wildcard
// elements are converted to their regex form so the alternation stays
// well-formed; other values are included verbatim, unescaped (spec.md
// section 4.5).
func BuildAlternation(values []string) string {
	seen := map[string]bool{}
	var parts []string
	for _, v := range values {
		if v == "" {
			continue
		}
		out := v
		if IsWildcardPattern(v) {
			out = ConvertWildcardToRegex(v)
		}
		if seen[out] {
			continue
		}
		seen[out] = true
		parts = append(parts, out)
	}
	return strings.Join(parts, "|")
}

func dedupPreserve(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func containsLiteral(av []string, value string) bool {
	for _, v := range av {
		if v == value {
			return true
		}
	}
	return false
}

func matchesAnyFullRegex(av []string, value string) bool {
	for _, v := range av {
		if IsFullRegexPattern(v) && regexMatchesFull(v, value) {
			return true
		}
	}
	return false
}

func matchingValues(av []string, pattern string) []string {
	var out []string
	for _, v := range av {
		if regexMatchesFull(pattern, v) {
			out = append(out, v)
		}
	}
	return out
}

func nonMatchingValues(av []string, pattern string) []string {
	var out []string
	for _, v := range av {
		if !regexMatchesFull(pattern, v) {
			out = append(out, v)
		}
	}
	return out
}

func removeValue(av []string, value string) []string {
	var out []string
	for _, v := range av {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

// regexMatchesFull anchors pattern to the whole string (spec.md section
// 4.5: "full-string anchored"). A malformed pattern is treated as matching
// nothing rather than falling back to substring containment — see
// DESIGN.md's Open Question decision on this point.
func regexMatchesFull(pattern, s string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
