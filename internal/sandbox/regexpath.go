package sandbox

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fqnPattern splits "backend.tool" into its two components. Both halves
// follow JS/Go identifier rules, matching the tools the registry actually
// indexes (registry.ToolDescriptor names are never dotted themselves).
var fqnPattern = regexp.MustCompile(`^([A-Za-z_][\w]*)\.([A-Za-z_][\w]*)$`)

func splitFQN(fqn string) (backendName, toolName string, ok bool) {
	m := fqnPattern.FindStringSubmatch(fqn)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// callExprPattern is spec.md §4.8's regex fast path, matched after
// stripping common one-line-script boilerplate.
var callExprPattern = regexp.MustCompile(`^([A-Za-z_][\w]*)\.([A-Za-z_][\w]*)\((\{.*\})\)$`)

// constAssignPattern strips a leading "const X = " / "let X = " / "var X = ".
var constAssignPattern = regexp.MustCompile(`^(?:const|let|var)\s+\w+\s*=\s*`)

// leadingReturnPattern strips a leading "return " when the whole statement
// is the return of the call expression itself, e.g.
// `return time.get_current_time({});`.
var leadingReturnPattern = regexp.MustCompile(`^return\s+(.*?);?\s*$`)

// trailingReturnStmtPattern strips a trailing "return X;" that refers back
// to a variable bound earlier in the snippet, e.g.
// `const x = await tool({}); return x;` -> `const x = await tool({});`.
var trailingReturnStmtPattern = regexp.MustCompile(`;?\s*return\s+[A-Za-z_]\w*\s*;?\s*$`)

// parseRegexFastPath implements tier 2: a single call expression, possibly
// wrapped in the boilerplate a model tends to generate around one call.
func parseRegexFastPath(code string) (directCall, bool) {
	stripped := strings.TrimSpace(code)
	stripped = constAssignPattern.ReplaceAllString(stripped, "")
	stripped = strings.TrimPrefix(stripped, "await ")
	stripped = trailingReturnStmtPattern.ReplaceAllString(stripped, "")
	if m := leadingReturnPattern.FindStringSubmatch(stripped); m != nil {
		stripped = m[1]
	}
	stripped = strings.TrimSuffix(strings.TrimSpace(stripped), ";")
	stripped = strings.TrimSpace(stripped)

	m := callExprPattern.FindStringSubmatch(stripped)
	if m == nil {
		return directCall{}, false
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(m[3]), &args); err != nil {
		return directCall{}, false
	}
	return directCall{Backend: m[1], Tool: m[2], Arguments: args}, true
}
