package enforce

import "strings"

// SerializeSection renders a list of expressions back into a section's
// inner content, joined with the dialect's separator (spec.md section 4.7).
func SerializeSection(exprs []LabelExpression, syntax *Syntax) string {
	parts := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		parts = append(parts, serializeExpr(expr))
	}
	return strings.Join(parts, syntax.Separator)
}

func serializeExpr(expr LabelExpression) string {
	if expr.Passthrough || !expr.rewritten {
		return expr.Original
	}
	var b strings.Builder
	b.WriteString(expr.Name)
	b.WriteString(string(expr.Op))
	b.WriteByte('"')
	b.WriteString(expr.Value)
	b.WriteByte('"')
	return b.String()
}
