package registry

import "strings"

// tokenize splits s on any run of non-alphanumeric characters and lowercases
// the result, per spec.md §4.5 "Indexing". Empty tokens from leading,
// trailing, or repeated separators are dropped.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(f)
	}
	return tokens
}

// buildDocument constructs the effective document for a tool: its name
// tokens counted twice (2x name boost), followed by description tokens.
func buildDocument(t ToolDescriptor) []string {
	nameTokens := tokenize(t.Name)
	descTokens := tokenize(t.Description)

	doc := make([]string, 0, 2*len(nameTokens)+len(descTokens))
	doc = append(doc, nameTokens...)
	doc = append(doc, nameTokens...)
	doc = append(doc, descTokens...)
	return doc
}
