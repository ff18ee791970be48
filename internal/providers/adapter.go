// Package providers translates canonical message history into
// provider-specific Bedrock invoke bodies and back.
//
// DESIGN: Each Bedrock model family speaks a different request dialect.
// Adapters abstract the differences behind a BuildRequest/ParseResponse
// pair; the registry selects an adapter by exact provider prefix of the
// model id (the segment before the first dot), never by substring match.
//
// FLOW:
//  1. Orchestrator asks the Client to complete against a model id
//  2. Registry resolves the adapter from the id's provider prefix
//  3. Adapter builds the provider-specific request body
//  4. Client invokes the Bedrock runtime over a SigV4-signing transport
//  5. Adapter parses the provider-specific response into plain text
//
// To add a model family: implement Adapter and register it in NewRegistry.
package providers

import (
	"fmt"
	"strings"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// NoCompletionMarker is returned by ParseResponse when the provider
// payload holds no usable completion. Parsing fails closed with this
// literal instead of an error so the turn loop can still persist an
// assistant message and terminate gracefully.
const NoCompletionMarker = "Error: no completion found"

// Adapter translates between canonical history and one model family's
// request/response dialect. Adapters are stateless and safe for
// concurrent use.
type Adapter interface {
	// Name returns the provider prefix this adapter serves
	// (e.g. "anthropic", "amazon").
	Name() string

	// BuildRequest produces the invoke body for the stored history.
	// Adapters for flat-prompt dialects drop image parts; that fidelity
	// loss is inherent to those dialects and is not silently repaired.
	BuildRequest(history []store.Message, systemPrompt string, maxTokens int) ([]byte, error)

	// ParseResponse extracts the assistant text from a raw provider
	// response. Never fails: malformed payloads yield NoCompletionMarker.
	ParseResponse(body []byte) string
}

// BaseAdapter carries the common name plumbing for all adapters.
type BaseAdapter struct {
	name string
}

// Name returns the adapter's provider prefix.
func (a *BaseAdapter) Name() string {
	return a.name
}

// flattenHistory renders history as a "<role>: <text>" transcript for
// dialects that only accept a flat prompt. The system prompt leads,
// and a trailing "assistant:" cue invites the completion.
func flattenHistory(history []store.Message, systemPrompt string) string {
	var sb strings.Builder
	if systemPrompt != "" {
		sb.WriteString(systemPrompt)
		sb.WriteString("\n\n")
	}
	for _, msg := range history {
		text := flattenParts(msg)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, text)
	}
	sb.WriteString("assistant:")
	return sb.String()
}

func flattenParts(msg store.Message) string {
	var sb strings.Builder
	for _, p := range msg.Parts {
		if p.Text == nil {
			continue // image parts are dropped in flat dialects
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(*p.Text)
	}
	return sb.String()
}
