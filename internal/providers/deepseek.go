package providers

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// DeepSeekAdapter speaks the OpenAI-compatible chat dialect DeepSeek
// models use on Bedrock. Messages keep their roles but content is plain
// strings, so parts flatten per message and images are dropped.
type DeepSeekAdapter struct {
	BaseAdapter
}

// NewDeepSeekAdapter creates the adapter for "deepseek.*" model ids.
func NewDeepSeekAdapter() *DeepSeekAdapter {
	return &DeepSeekAdapter{BaseAdapter{name: "deepseek"}}
}

type deepseekRequest struct {
	Messages  []deepseekMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequest maps history onto chat messages with string content.
func (a *DeepSeekAdapter) BuildRequest(history []store.Message, systemPrompt string, maxTokens int) ([]byte, error) {
	req := deepseekRequest{MaxTokens: maxTokens}
	if systemPrompt != "" {
		req.Messages = append(req.Messages, deepseekMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range history {
		text := flattenParts(msg)
		if text == "" {
			continue
		}
		req.Messages = append(req.Messages, deepseekMessage{Role: msg.Role, Content: text})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("deepseek: marshal request: %w", err)
	}
	return body, nil
}

// ParseResponse extracts the first choice's message content.
func (a *DeepSeekAdapter) ParseResponse(body []byte) string {
	if text := gjson.GetBytes(body, "choices.0.message.content").String(); text != "" {
		return text
	}
	return NoCompletionMarker
}

var _ Adapter = (*DeepSeekAdapter)(nil)
