package enforce

import "strings"

// wildcardForms are the fixed set of values policy and queries use to mean
// "any value" (spec.md section 4.1).
var wildcardForms = map[string]bool{
	"*":  true,
	".*": true,
	".+": true,
	"()": true,
}

// regexMetaChars are the characters whose presence alone marks a value as
// regex-shaped per spec.md section 4.1 (note: '*' is deliberately absent —
// a glob with only '*' is not regex on its own).
const regexMetaChars = "^$[]()|\\"

// ReservedKeys are ConstraintMap keys that carry meta-policy rather than a
// label constraint. The core skips them when synthesizing selectors and
// never enforces them as labels (spec.md section 3).
var ReservedKeys = map[string]bool{
	"labels": true,
	"groups": true,
}

// operatorPrefixes is the fixed, longest-first list of operator prefixes a
// constraint value may encode (spec.md section 3, "operator-prefixed
// value").
var operatorPrefixes = []Operator{OpNotRegex, OpRegexMatch, OpNotEqual}

// IsWildcardPattern reports whether v is one of the four fixed forms that
// mean "any value".
func IsWildcardPattern(v string) bool {
	return wildcardForms[v]
}

// ContainsWildcardValues reports whether any element of set is a wildcard
// pattern (the exact forms from IsWildcardPattern, not a glob).
func ContainsWildcardValues(set []string) bool {
	for _, v := range set {
		if IsWildcardPattern(v) {
			return true
		}
	}
	return false
}

// IsEmptyOrWildcard reports whether v is empty or a wildcard pattern.
func IsEmptyOrWildcard(v string) bool {
	return v == "" || IsWildcardPattern(v)
}

// IsRegexPattern reports whether v is shaped like a regex: it contains one
// of the fixed metacharacters, or a ".*"/".+" substring, excluding pure
// wildcard forms and globs whose only metacharacter is '*'.
func IsRegexPattern(v string) bool {
	if IsWildcardPattern(v) {
		return false
	}
	hasMeta := strings.ContainsAny(v, regexMetaChars) || strings.Contains(v, ".*") || strings.Contains(v, ".+")
	if !hasMeta {
		return false
	}
	if isStarOnlyGlob(v) {
		return false
	}
	return true
}

// isStarOnlyGlob reports whether v's only special character is '*' (a plain
// glob, not a regex) — i.e. once '*' is stripped, nothing regex-shaped
// (including '.') remains.
func isStarOnlyGlob(v string) bool {
	if !strings.Contains(v, "*") {
		return false
	}
	stripped := strings.ReplaceAll(v, "*", "")
	return !strings.ContainsAny(stripped, regexMetaChars+".")
}

// IsFullRegexPattern reports whether v has an anchor, a character class,
// alternation, a group, or an escape — the signal used to distinguish a
// real regex from a simple glob (spec.md section 4.1).
func IsFullRegexPattern(v string) bool {
	if IsWildcardPattern(v) {
		return false
	}
	return strings.ContainsAny(v, "^$") ||
		strings.ContainsAny(v, "[]") ||
		strings.Contains(v, "|") ||
		strings.ContainsAny(v, "()") ||
		strings.Contains(v, "\\")
}

// ConvertWildcardToRegex rewrites every '*' in v to ".*"; nothing else is
// touched.
func ConvertWildcardToRegex(v string) string {
	return strings.ReplaceAll(v, "*", ".*")
}

// FixURLDecodingIssues repairs a fixed, small set of artifacts left behind
// by a caller's URL-decoding pass before the blob reaches the scanner. The
// exact list is deliberately narrow (spec.md section 9 flags this as
// empirical and warns against inventing a broad list):
//
//   - A literal '+' that survived decoding as a form-encoded space is
//     restored to a space, except inside the ".+" wildcard token, which is
//     a meaningful regex quantifier and must not be touched.
//   - A percent-escape that was decoded twice ("%2520" where "%20" — an
//     encoded space — was itself encoded again) is collapsed back to a
//     single decode of the inner escape.
func FixURLDecodingIssues(v string) string {
	fixed := strings.ReplaceAll(v, "%2520", "%20")
	if !strings.Contains(fixed, "+") {
		return fixed
	}
	var b strings.Builder
	b.Grow(len(fixed))
	for i := 0; i < len(fixed); i++ {
		if fixed[i] == '+' && !(i > 0 && fixed[i-1] == '.') {
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(fixed[i])
	}
	return b.String()
}

// ExtractOperatorPrefix scans element against the fixed, longest-first
// operator-prefix list and reports the operator and remaining value if one
// matches (spec.md section 4.5, "operator-prefix extraction").
func ExtractOperatorPrefix(element string) (Operator, string, bool) {
	for _, op := range operatorPrefixes {
		if strings.HasPrefix(element, string(op)) {
			return op, strings.TrimPrefix(element, string(op)), true
		}
	}
	return "", element, false
}
