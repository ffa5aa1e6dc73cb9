package enforce

import "sort"

// EnhanceQuery is the end-to-end entry point (spec.md section 4.8): parse,
// normalize, enhance and synthesize every label section of query, or
// synthesize a bare selector when the query has none.
func EnhanceQuery(ctx QueryContext) (*EnhancementResult, error) {
	if err := validateInbound(ctx); err != nil {
		return nil, err
	}

	syntax := SyntaxFor(ctx.Language)
	sections, malformed := FindLabelSections(ctx.Query)
	if malformed {
		return nil, &UsageError{Reason: "unclosed quote or brace in query"}
	}

	if len(sections) == 0 {
		return enhanceSelectorless(ctx.Query, ctx.Constraints, syntax, ctx.Language), nil
	}

	var added []string
	out, err := ReplaceLabelSections(ctx.Query, func(inner string) (string, error) {
		serialized, names, err := enhanceSection(inner, ctx.Constraints, syntax)
		if err != nil {
			return "", err
		}
		added = append(added, names...)
		return serialized, nil
	})
	if err != nil {
		return nil, err
	}
	return &EnhancementResult{EnhancedQuery: out, AddedConstraints: added}, nil
}

func validateInbound(ctx QueryContext) error {
	if ctx.Constraints == nil {
		return &UsageError{Reason: "constraints must not be nil"}
	}
	for name := range ctx.Constraints {
		if err := validateLabelName(name); err != nil {
			return &UsageError{Reason: "invalid constraint label name: " + err.Error()}
		}
	}
	return nil
}

// enhanceSelectorless implements step 2 of the orchestrator contract: a
// query with no `{ … }` section gets a single synthesized one, placed per
// the dialect's convention for a bare selector.
func enhanceSelectorless(query string, constraints ConstraintMap, syntax *Syntax, lang Language) *EnhancementResult {
	synthesized := Synthesize(sortedKeys(constraints), nil, constraints)

	if query == "" {
		if len(synthesized) == 0 {
			return &EnhancementResult{EnhancedQuery: "{}"}
		}
		return &EnhancementResult{
			EnhancedQuery:    "{" + SerializeSection(synthesized, syntax) + "}",
			AddedConstraints: namesOf(synthesized),
		}
	}

	if len(synthesized) == 0 {
		return &EnhancementResult{EnhancedQuery: query}
	}

	selector := "{" + SerializeSection(synthesized, syntax) + "}"
	added := namesOf(synthesized)
	if lang == LogQL {
		return &EnhancementResult{EnhancedQuery: selector + query, AddedConstraints: added}
	}
	return &EnhancementResult{EnhancedQuery: query + selector, AddedConstraints: added}
}

// enhanceSection drives one `{ … }` region through parse → normalize →
// enhance → synthesize → serialize (spec.md section 4.8, step 3).
func enhanceSection(inner string, constraints ConstraintMap, syntax *Syntax) (string, []string, error) {
	exprs, _, err := ParseSection(inner, syntax)
	if err != nil {
		return "", nil, err
	}

	present := make(map[string]bool, len(exprs))
	for _, e := range exprs {
		if !e.Passthrough {
			present[e.Name] = true
		}
	}

	enhanced := make([]LabelExpression, 0, len(exprs))
	for _, e := range exprs {
		n := Normalize(e, constraints)
		out, keep, err := Enhance(n, constraints)
		if err != nil {
			return "", nil, err
		}
		if keep {
			enhanced = append(enhanced, out)
		}
	}

	synthesized := Synthesize(sortedKeys(constraints), present, constraints)
	enhanced = append(enhanced, synthesized...)

	return SerializeSection(enhanced, syntax), namesOf(synthesized), nil
}

func sortedKeys(m ConstraintMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func namesOf(exprs []LabelExpression) []string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = e.Name
	}
	return out
}
