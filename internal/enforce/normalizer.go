package enforce

// Normalize canonicalizes an expression's wildcard/empty value into regex-
// operator form (spec.md section 4.4). It is purely syntactic: the only
// constraint-map lookup it performs is the "single allowed value" collapse
// for an empty equality value.
func Normalize(expr LabelExpression, constraints ConstraintMap) LabelExpression {
	if expr.Passthrough || expr.Intrinsic {
		return expr
	}
	if ReservedKeys[expr.Name] {
		return expr
	}
	if expr.Op == OpNotRegex {
		return expr
	}
	if !IsEmptyOrWildcard(expr.Value) {
		return expr
	}

	switch expr.Op {
	case OpEqual:
		if expr.Value == "" {
			if av := constraints[expr.Name]; len(av) == 1 {
				expr.Value = av[0]
				expr.rewritten = true
				return expr
			}
			expr.Op = OpRegexMatch
			expr.Value = ".+"
			expr.rewritten = true
			return expr
		}
		expr.Op = OpRegexMatch
		expr.Value = ".*"
		expr.rewritten = true
		return expr
	case OpNotEqual:
		if expr.Value == "" {
			return expr
		}
		expr.Op = OpRegexMatch
		expr.Value = ".*"
		expr.rewritten = true
		return expr
	case OpRegexMatch:
		expr.Op = OpRegexMatch
		expr.Value = ".*"
		expr.rewritten = true
		return expr
	default:
		return expr
	}
}
