package providers

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// MistralAdapter speaks the Mistral completion dialect on Bedrock: a
// single flat prompt. History flattens like Titan's; images are dropped.
type MistralAdapter struct {
	BaseAdapter
}

// NewMistralAdapter creates the adapter for "mistral.*" model ids.
func NewMistralAdapter() *MistralAdapter {
	return &MistralAdapter{BaseAdapter{name: "mistral"}}
}

type mistralRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// BuildRequest flattens the history into the prompt field.
func (a *MistralAdapter) BuildRequest(history []store.Message, systemPrompt string, maxTokens int) ([]byte, error) {
	req := mistralRequest{
		Prompt:    flattenHistory(history, systemPrompt),
		MaxTokens: maxTokens,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("mistral: marshal request: %w", err)
	}
	return body, nil
}

// ParseResponse extracts the first output's text.
func (a *MistralAdapter) ParseResponse(body []byte) string {
	if text := gjson.GetBytes(body, "outputs.0.text").String(); text != "" {
		return text
	}
	return NoCompletionMarker
}

var _ Adapter = (*MistralAdapter)(nil)
