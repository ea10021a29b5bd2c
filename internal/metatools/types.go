package metatools

import "encoding/json"

// searchToolsBriefItem is one entry of search_tools' brief output.
type searchToolsBriefItem struct {
	Name        string  `json:"name"`
	Backend     string  `json:"backend"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// searchToolsFullItem is one entry of search_tools' full output.
type searchToolsFullItem struct {
	Name        string  `json:"name"`
	Backend     string  `json:"backend"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// listToolsMetaResult is list_tools_meta's output shape (brief and full are
// identical, spec.md §4.7).
type listToolsMetaResult struct {
	Tools      []string `json:"tools"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// toolInfoBrief is tool_info's brief output.
type toolInfoBrief struct {
	Name          string   `json:"name"`
	Backend       string   `json:"backend"`
	FirstSentence string   `json:"first_sentence"`
	Parameters    []string `json:"parameters"`
}

// toolInfoFull is tool_info's full output.
type toolInfoFull struct {
	Name        string          `json:"name"`
	Backend     string          `json:"backend"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// requiredKeysResult is get_required_keys_for_tool's output.
type requiredKeysResult struct {
	Tool         string   `json:"tool"`
	Backend      string   `json:"backend"`
	RequiredKeys []string `json:"required_keys"`
}

// registerManualResult acknowledges register_manual.
type registerManualResult struct {
	Status  string `json:"status"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// deregisterManualResult acknowledges deregister_manual.
type deregisterManualResult struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}
