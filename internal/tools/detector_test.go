package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_StrictWholeMessage(t *testing.T) {
	call, ok := Detect(`{"tool_name": "google_search", "query": "weather today"}`)
	require.True(t, ok)
	assert.Equal(t, "google_search", call.ToolName)
	assert.Equal(t, "weather today", call.Query)
}

func TestDetect_ToleratesSurroundingProse(t *testing.T) {
	// The lenient fallback handles models that wrap the call in chatter.
	call, ok := Detect(`Let me check. {"tool_name": "google_search", "query": "weather today"} `)
	require.True(t, ok)
	assert.Equal(t, "weather today", call.Query)
}

func TestDetect_PlainAnswerIsNotACall(t *testing.T) {
	_, ok := Detect("I think so.")
	assert.False(t, ok)
}

func TestDetect_WrongToolName(t *testing.T) {
	_, ok := Detect(`{"tool_name": "calculator", "query": "2+2"}`)
	assert.False(t, ok)
}

func TestDetect_MalformedJSON(t *testing.T) {
	_, ok := Detect(`{"tool_name": "google_search", "query": `)
	assert.False(t, ok)
}

func TestDetect_BracesWithoutCall(t *testing.T) {
	// An answer containing unrelated braces parses but has no tool_name.
	_, ok := Detect(`In Go, a struct literal looks like T{Field: 1}.`)
	assert.False(t, ok)
}

func TestDetect_ReversedBraces(t *testing.T) {
	_, ok := Detect(`} backwards {`)
	assert.False(t, ok)
}

func TestDetect_EmptyText(t *testing.T) {
	_, ok := Detect("")
	assert.False(t, ok)
}
