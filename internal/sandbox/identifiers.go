package sandbox

import "strings"

// sanitizeIdentifier converts a backend or tool name into a valid JS
// identifier for use as a preamble object/property member name (spec.md
// §4.9 "Identifier sanitisation"). The actual backend/tool strings passed
// to __call_tool are JSON-escaped literals independent of this name, so
// sanitisation never changes call semantics — it only has to produce
// *some* valid, collision-free-enough identifier to hang the wrapper off.
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	return out
}
