package enforce

// Synthesize appends one expression per constraint-map label in names that
// the section's already-enforced expressions (present) do not cover
// (spec.md section 4.6). Iteration is in the order names is given, which
// callers must make deterministic for a given ConstraintMap.
func Synthesize(names []string, present map[string]bool, constraints ConstraintMap) []LabelExpression {
	var out []LabelExpression
	for _, name := range names {
		if ReservedKeys[name] {
			continue
		}
		if present[name] {
			continue
		}
		av := constraints[name]
		if len(av) == 0 {
			continue
		}
		if ContainsWildcardValues(av) {
			continue
		}
		out = append(out, synthesizeOne(name, av))
	}
	return out
}

func synthesizeOne(name string, av []string) LabelExpression {
	if len(av) == 1 {
		if op, rest, ok := ExtractOperatorPrefix(av[0]); ok {
			return LabelExpression{Name: name, Op: op, Value: rest, rewritten: true}
		}
		return LabelExpression{Name: name, Op: OpRegexMatch, Value: av[0], rewritten: true}
	}
	return LabelExpression{Name: name, Op: OpRegexMatch, Value: BuildAlternation(av), rewritten: true}
}
