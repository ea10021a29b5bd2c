package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"gatemini/internal/registry"
)

// preambleSource builds the JS injected ahead of user code (spec.md §4.9
// step 3): one wrapper object per backend, plus __interfaces and
// __getToolInterface for introspection from within the sandbox.
func preambleSource(tools []registry.ToolDescriptor) (string, error) {
	byBackend := map[string][]registry.ToolDescriptor{}
	for _, t := range tools {
		byBackend[t.Backend] = append(byBackend[t.Backend], t)
	}

	type toolInterface struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"input_schema,omitempty"`
	}
	interfaces := map[string][]toolInterface{}
	for backendName, backendTools := range byBackend {
		for _, t := range backendTools {
			interfaces[backendName] = append(interfaces[backendName], toolInterface{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
	}
	interfacesJSON, err := json.Marshal(interfaces)
	if err != nil {
		return "", fmt.Errorf("marshal tool interfaces: %w", err)
	}

	var b strings.Builder
	b.WriteString("var __interfaces = ")
	b.Write(interfacesJSON)
	b.WriteString(";\n")
	b.WriteString(getToolInterfaceSource)

	seen := map[string]bool{}
	for backendName, backendTools := range byBackend {
		jsName := sanitizeIdentifier(backendName)
		for seen[jsName] {
			jsName += "_"
		}
		seen[jsName] = true

		fmt.Fprintf(&b, "var %s = {};\n", jsName)
		for _, t := range backendTools {
			backendLit, err := json.Marshal(backendName)
			if err != nil {
				return "", err
			}
			toolLit, err := json.Marshal(t.Name)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "%s[%s] = async function(args) { return __call_tool(%s, %s, args || {}); };\n",
				jsName, toolLit, backendLit, toolLit)
		}
		fmt.Fprintf(&b, "globalThis[%s] = %s;\n", mustJSON(backendName), jsName)
	}

	return b.String(), nil
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// getToolInterfaceSource implements __getToolInterface(name): name may be
// a bare tool name or a "backend.tool" FQN.
const getToolInterfaceSource = `
function __getToolInterface(name) {
	var dot = name.indexOf(".");
	if (dot >= 0) {
		var b = name.slice(0, dot), t = name.slice(dot + 1);
		var list = __interfaces[b] || [];
		for (var i = 0; i < list.length; i++) {
			if (list[i].name === t) return list[i];
		}
		return null;
	}
	for (var backend in __interfaces) {
		var tools = __interfaces[backend];
		for (var j = 0; j < tools.length; j++) {
			if (tools[j].name === name) return tools[j];
		}
	}
	return null;
}
`
