package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

const (
	// DefaultTimeout bounds a single model invocation. The upstream
	// behavior had no inference timeout at all; one is applied here
	// deliberately.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxTokens is the completion budget when unconfigured.
	DefaultMaxTokens = 4096

	// maxResponseSize prevents OOM on unexpectedly large responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBodyLen limits error bodies quoted in error messages.
	maxErrorBodyLen = 500
)

// TransportError is a network-level failure reaching the inference
// endpoint (connect, timeout, TLS).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InferenceError is a non-success status or unreadable payload from the
// inference endpoint.
type InferenceError struct {
	StatusCode int
	Body       string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Endpoint overrides the Bedrock runtime base URL (for tests and
	// private endpoints). Empty uses the regional default.
	Endpoint  string
	Region    string
	Timeout   time.Duration
	MaxTokens int

	// Overrides are JSON paths patched onto the built request body,
	// keyed by provider prefix (e.g. "amazon" → {"textGenerationConfig.
	// temperature": 0.7}). Applied with sjson after BuildRequest.
	Overrides map[string]map[string]any

	// HTTPClient overrides the default client. Production wiring sets a
	// client whose transport signs with SigV4.
	HTTPClient *http.Client
}

// Client resolves adapters and invokes the Bedrock runtime.
type Client struct {
	registry  *Registry
	http      *http.Client
	baseURL   string
	timeout   time.Duration
	maxTokens int
	overrides map[string]map[string]any
}

// NewClient creates a Client over the given registry.
func NewClient(registry *Registry, opts ClientOptions) *Client {
	baseURL := opts.Endpoint
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", opts.Region)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{} // timeout via context, not client
	}
	return &Client{
		registry:  registry,
		http:      httpClient,
		baseURL:   baseURL,
		timeout:   timeout,
		maxTokens: maxTokens,
		overrides: opts.Overrides,
	}
}

// Complete runs one model invocation: resolve adapter, build body,
// invoke, parse. Returns ErrUnsupportedProvider before any network call
// for unknown model ids; *TransportError or *InferenceError for invoke
// failures.
func (c *Client) Complete(ctx context.Context, modelID string, history []store.Message, systemPrompt string) (string, error) {
	adapter, err := c.registry.ForModel(modelID)
	if err != nil {
		return "", err
	}

	body, err := adapter.BuildRequest(history, systemPrompt, c.maxTokens)
	if err != nil {
		return "", fmt.Errorf("build request for %q: %w", modelID, err)
	}
	body, err = c.applyOverrides(adapter.Name(), body)
	if err != nil {
		return "", err
	}

	raw, err := c.invoke(ctx, modelID, body)
	if err != nil {
		return "", err
	}

	text := adapter.ParseResponse(raw)
	log.Debug().
		Str("model", modelID).
		Str("provider", adapter.Name()).
		Int("response_bytes", len(raw)).
		Msg("model invocation complete")
	return text, nil
}

// applyOverrides patches configured JSON paths onto the built body.
func (c *Client) applyOverrides(provider string, body []byte) ([]byte, error) {
	for path, value := range c.overrides[provider] {
		patched, err := sjson.SetBytes(body, path, value)
		if err != nil {
			return nil, fmt.Errorf("apply override %s.%s: %w", provider, path, err)
		}
		body = patched
	}
	return body, nil
}

// invoke POSTs the body to the Bedrock runtime invoke endpoint.
func (c *Client) invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/model/%s/invoke", c.baseURL, url.PathEscape(modelID))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		errBody := string(respBody)
		if len(errBody) > maxErrorBodyLen {
			errBody = errBody[:maxErrorBodyLen] + "... (truncated)"
		}
		return nil, &InferenceError{StatusCode: resp.StatusCode, Body: errBody}
	}

	return respBody, nil
}
