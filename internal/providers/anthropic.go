package providers

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// bedrockAnthropicVersion is the required anthropic_version field value
// for Claude models invoked through Bedrock.
const bedrockAnthropicVersion = "bedrock-2023-05-31"

// AnthropicAdapter speaks the Claude Messages API dialect on Bedrock.
// It is the only built-in adapter that preserves image parts: content
// is sent as structured multimodal blocks.
type AnthropicAdapter struct {
	BaseAdapter
}

// NewAnthropicAdapter creates the adapter for "anthropic.*" model ids.
func NewAnthropicAdapter() *AnthropicAdapter {
	return &AnthropicAdapter{BaseAdapter{name: "anthropic"}}
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// BuildRequest maps each stored message's parts onto Messages API
// content blocks.
func (a *AnthropicAdapter) BuildRequest(history []store.Message, systemPrompt string, maxTokens int) ([]byte, error) {
	req := anthropicRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        maxTokens,
		System:           systemPrompt,
	}

	for _, msg := range history {
		var blocks []anthropicBlock
		for _, p := range msg.Parts {
			switch {
			case p.Text != nil:
				blocks = append(blocks, anthropicBlock{Type: "text", Text: *p.Text})
			case p.Image != nil:
				blocks = append(blocks, anthropicBlock{
					Type: "image",
					Source: &anthropicSource{
						Type:      "base64",
						MediaType: p.Image.MediaType,
						Data:      p.Image.Data,
					},
				})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: msg.Role, Content: blocks})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}
	return body, nil
}

// ParseResponse returns the first text block of the response content.
func (a *AnthropicAdapter) ParseResponse(body []byte) string {
	for _, block := range gjson.GetBytes(body, "content").Array() {
		if block.Get("type").String() == "text" {
			if text := block.Get("text").String(); text != "" {
				return text
			}
		}
	}
	return NoCompletionMarker
}

var _ Adapter = (*AnthropicAdapter)(nil)
