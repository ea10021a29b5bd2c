package metatools

// requestArgs extracts the arguments map from a CallToolRequest's decoded
// Arguments value, tolerating a nil or unexpected shape the way
// aggregator/tool_factory.go's createToolHandler does upstream.
func requestArgs(raw any) map[string]any {
	if m, ok := raw.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch value := v.(type) {
	case string:
		return value
	default:
		return ""
	}
}

func argInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch value := v.(type) {
	case float64:
		return int(value)
	case int:
		return value
	default:
		return def
	}
}

func argBool(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func argObject(args map[string]any, key string) map[string]any {
	v, ok := args[key]
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
