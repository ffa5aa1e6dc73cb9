package enforce

import (
	"fmt"
	"strings"
)

// ParseSection tokenizes the inner content of one label section into an
// ordered list of LabelExpressions (spec.md section 4.3). Duplicates are
// preserved. A malformed pair is reported as a warning and dropped; the
// rest of the section is still parsed. An unclosed quote, an unbalanced
// brace, or input over the length bound makes the whole section
// unparseable and is reported as a UsageError, not a dropped pair. In a
// TraceQL section, a pair holding an unquoted "||" (disjunction, which is
// not supported) is reported as Unauthorized.
func ParseSection(inner string, syntax *Syntax) ([]LabelExpression, []PairParseError, error) {
	fixed := FixURLDecodingIssues(inner)
	content := strings.TrimSpace(fixed)
	if syntax.StripBraces && strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		content = content[1 : len(content)-1]
	}

	pairs, ok := SplitPairs(content, syntax)
	if !ok {
		return nil, nil, &UsageError{Reason: "unbalanced quotes or braces, or input too long, in selector " + inner}
	}

	var exprs []LabelExpression
	var warnings []PairParseError

	for _, raw := range pairs {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		if syntax.AndAndSplit {
			inQuote := false
			for i := 0; i+1 < len(trimmed); i++ {
				switch {
				case inQuote && trimmed[i] == '\\':
					i++
				case trimmed[i] == '"':
					inQuote = !inQuote
				case !inQuote && trimmed[i] == '|' && trimmed[i+1] == '|':
					return nil, nil, &Unauthorized{Value: trimmed}
				}
			}
		}

		if isInvalidBangForm(trimmed) {
			warnings = append(warnings, PairParseError{Pair: trimmed, Reason: "invalid '!' syntax"})
			continue
		}

		if syntax.Passthrough[trimmed] {
			exprs = append(exprs, LabelExpression{Original: raw, Passthrough: true})
			continue
		}

		if name, ok := intrinsicComparatorAt(trimmed, syntax.IsIntrinsic); ok {
			exprs = append(exprs, LabelExpression{Name: name, Original: raw, Passthrough: true, Intrinsic: true})
			continue
		}

		op, idx := findOperator(trimmed, syntax.OperatorPrecedence)
		if idx <= 0 {
			warnings = append(warnings, PairParseError{Pair: trimmed, Reason: "no recognized operator"})
			continue
		}

		name := strings.TrimSpace(trimmed[:idx])
		rawValue := strings.TrimSpace(trimmed[idx+len(op):])
		value, quoted := unquoteValue(rawValue)
		intrinsic := syntax.IsIntrinsic(name)

		if !intrinsic {
			if err := validateLabelName(name); err != nil {
				warnings = append(warnings, PairParseError{Pair: trimmed, Reason: err.Error()})
				continue
			}
		}

		expr := LabelExpression{
			Name:      name,
			Op:        op,
			Value:     value,
			Quoted:    quoted,
			Original:  raw,
			Intrinsic: intrinsic,
		}

		// Regex-operator promotion (spec.md section 4.3, step 7): must
		// happen here so every downstream stage sees a canonical operator.
		switch {
		case op == OpEqual && IsRegexPattern(value):
			expr.Op = OpRegexMatch
			expr.rewritten = true
		case op == OpNotEqual && IsRegexPattern(value):
			expr.Op = OpNotRegex
			expr.rewritten = true
		}

		exprs = append(exprs, expr)
	}

	return exprs, warnings, nil
}

// isInvalidBangForm rejects a pair that starts with '!' but does not form a
// "!=" / "!~" operator at its head, while still containing '=' or '~'
// later — e.g. "!label=value" (spec.md section 4.3, step 4).
func isInvalidBangForm(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "!") {
		return false
	}
	if len(trimmed) > 1 && (trimmed[1] == '=' || trimmed[1] == '~') {
		return false
	}
	return strings.ContainsAny(trimmed[1:], "=~")
}

// findOperator scans precedence in order and returns the first operator
// found at an index greater than zero (there must be a name before it).
func findOperator(trimmed string, precedence []Operator) (Operator, int) {
	for _, op := range precedence {
		if idx := strings.Index(trimmed, string(op)); idx > 0 {
			return op, idx
		}
	}
	return "", -1
}

// unquoteValue strips a pair of surrounding double quotes, unescaping `\"`,
// and reports whether the value was quoted in the source.
func unquoteValue(raw string) (string, bool) {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		inner := strings.ReplaceAll(raw[1:len(raw)-1], `\"`, `"`)
		return inner, true
	}
	return raw, false
}

func validateLabelName(name string) error {
	if name == "" {
		return fmt.Errorf("empty label name")
	}
	if strings.ContainsAny(name, " \t\"'") {
		return fmt.Errorf("invalid label name %q", name)
	}
	return nil
}
