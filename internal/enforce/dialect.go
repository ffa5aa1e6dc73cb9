package enforce

import "strings"

// Syntax is a per-language dialect record (spec.md section 3, QuerySyntax):
// separator between selectors, operator-precedence for parsing, the
// passthrough keyword set, the intrinsic-attribute predicate, and whether
// brace-stripping applies to a section's inner content.
type Syntax struct {
	Separator          string
	OperatorPrecedence []Operator
	Passthrough        map[string]bool
	IsIntrinsic        func(name string) bool
	StripBraces        bool
	AndAndSplit        bool
}

// operatorPrecedence is shared by every dialect: longest-first so a
// two-character operator wins over its single-character prefix.
var operatorPrecedence = []Operator{OpNotRegex, OpRegexMatch, OpNotEqual, OpEqual}

var promqlSyntax = &Syntax{
	Separator:          ",",
	OperatorPrecedence: operatorPrecedence,
	Passthrough:        map[string]bool{},
	IsIntrinsic:        func(string) bool { return false },
	StripBraces:        true,
}

var logqlSyntax = &Syntax{
	Separator:          ",",
	OperatorPrecedence: operatorPrecedence,
	Passthrough:        map[string]bool{},
	IsIntrinsic:        func(string) bool { return false },
	StripBraces:        true,
}

// traceQLIntrinsics are the dialect-reserved span attributes that bypass
// name validation and enforcement (spec.md section 3, Glossary).
var traceQLIntrinsics = map[string]bool{
	"status":          true,
	"duration":        true,
	"kind":            true,
	"name":            true,
	"nestedSetParent": true,
}

var traceqlSyntax = &Syntax{
	Separator:          " && ",
	OperatorPrecedence: operatorPrecedence,
	Passthrough:        map[string]bool{"true": true, "false": true},
	IsIntrinsic:        func(name string) bool { return traceQLIntrinsics[name] },
	StripBraces:        true,
	AndAndSplit:        true,
}

// SyntaxFor returns the dialect record for a language.
func SyntaxFor(l Language) *Syntax {
	switch l {
	case PromQL:
		return promqlSyntax
	case LogQL:
		return logqlSyntax
	case TraceQL:
		return traceqlSyntax
	default:
		return promqlSyntax
	}
}

// intrinsicComparatorOps are comparators a TraceQL intrinsic may use that
// fall outside the four label operators (duration > 0, nestedSetParent<0).
// A pair whose leading identifier is intrinsic and whose remainder starts
// with one of these is preserved verbatim as a passthrough expression
// rather than dropped (spec.md section 3: "duration > 0" is named as an
// example passthrough form).
var intrinsicComparatorOps = []string{">=", "<=", ">", "<"}

// intrinsicComparatorAt reports whether trimmed begins with an intrinsic
// name immediately followed (ignoring whitespace) by one of
// intrinsicComparatorOps, and if so returns that leading name.
func intrinsicComparatorAt(trimmed string, isIntrinsic func(string) bool) (string, bool) {
	i := 0
	for i < len(trimmed) && (isIdentByte(trimmed[i])) {
		i++
	}
	if i == 0 {
		return "", false
	}
	name := trimmed[:i]
	if !isIntrinsic(name) {
		return "", false
	}
	rest := strings.TrimSpace(trimmed[i:])
	for _, op := range intrinsicComparatorOps {
		if strings.HasPrefix(rest, op) {
			return name, true
		}
	}
	return "", false
}

func isIdentByte(b byte) bool {
	return b == '.' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
