package providers

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// TitanAdapter speaks the Amazon Titan text-generation dialect: a single
// flat inputText prompt. History is flattened to "<role>: <text>" lines
// and image parts are dropped.
type TitanAdapter struct {
	BaseAdapter
}

// NewTitanAdapter creates the adapter for "amazon.*" model ids.
func NewTitanAdapter() *TitanAdapter {
	return &TitanAdapter{BaseAdapter{name: "amazon"}}
}

type titanRequest struct {
	InputText            string      `json:"inputText"`
	TextGenerationConfig titanConfig `json:"textGenerationConfig"`
}

type titanConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
}

// BuildRequest flattens the history into the inputText prompt.
func (a *TitanAdapter) BuildRequest(history []store.Message, systemPrompt string, maxTokens int) ([]byte, error) {
	req := titanRequest{
		InputText: flattenHistory(history, systemPrompt),
		TextGenerationConfig: titanConfig{
			MaxTokenCount: maxTokens,
			Temperature:   0.0,
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("titan: marshal request: %w", err)
	}
	return body, nil
}

// ParseResponse extracts the first generation's output text.
func (a *TitanAdapter) ParseResponse(body []byte) string {
	if text := gjson.GetBytes(body, "results.0.outputText").String(); text != "" {
		return text
	}
	return NoCompletionMarker
}

var _ Adapter = (*TitanAdapter)(nil)
