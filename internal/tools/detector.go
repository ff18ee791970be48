// Package tools holds the tool-call protocol: detecting an embedded
// tool invocation in model output, and executing the web search it asks
// for.
package tools

import (
	"encoding/json"
	"strings"
)

// GoogleSearch is the only recognized tool name. Any other value, or
// the absence of a parseable call, means the text is a final answer.
const GoogleSearch = "google_search"

// Call is a structured tool directive embedded in model output.
type Call struct {
	ToolName string `json:"tool_name"`
	Query    string `json:"query"`
}

// Detect scans assistant output for an embedded tool invocation.
//
// The strict path requires the whole trimmed response to be the call
// object; models that follow the protocol produce exactly that. The
// fallback scans from the first '{' to the last '}' and tolerates
// surrounding prose. The fallback is a known-fragile compatibility shim
// for models that wrap the call in chatter: a final answer containing
// unrelated balanced braces can misfire it. Parse failures and
// tool-name mismatches are indistinguishable to the caller; both mean
// "final answer".
func Detect(text string) (Call, bool) {
	trimmed := strings.TrimSpace(text)
	if call, ok := parseCall(trimmed); ok {
		return call, true
	}

	// Fallback: lenient brace scan (not nested-brace-aware).
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || start >= end {
		return Call{}, false
	}
	return parseCall(text[start : end+1])
}

func parseCall(candidate string) (Call, bool) {
	var call Call
	if err := json.Unmarshal([]byte(candidate), &call); err != nil {
		return Call{}, false
	}
	if call.ToolName != GoogleSearch {
		return Call{}, false
	}
	return call, true
}
