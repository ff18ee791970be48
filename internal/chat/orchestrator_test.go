package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/content"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/providers"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

const toolCallText = `{"tool_name": "google_search", "query": "weather today"}`

// fakeModel scripts Complete responses per invocation.
type fakeModel struct {
	script    []string
	errs      []error
	calls     int
	histories [][]store.Message
}

func (f *fakeModel) Complete(_ context.Context, _ string, history []store.Message, _ string) (string, error) {
	idx := f.calls
	f.calls++
	f.histories = append(f.histories, history)

	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.script) {
		return f.script[idx], nil
	}
	return "fallthrough answer", nil
}

// fakeSearcher records queries and returns canned evidence.
type fakeSearcher struct {
	result  string
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) string {
	f.queries = append(f.queries, query)
	return f.result
}

func newConversation(t *testing.T) (*store.SQLite, string) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sum, err := st.CreateConversation(context.Background(), "t", "anthropic.claude-v2")
	require.NoError(t, err)
	require.NoError(t, st.AppendMessage(context.Background(), sum.ID, store.RoleUser,
		[]content.Part{content.TextPart("Hello")}))
	return st, sum.ID
}

func messages(t *testing.T, st store.Store, id string) []store.Message {
	t.Helper()
	conv, err := st.GetConversation(context.Background(), id)
	require.NoError(t, err)
	return conv.Messages
}

func TestRespond_NoToolCall_SingleAssistantTurn(t *testing.T) {
	st, id := newConversation(t)
	model := &fakeModel{script: []string{"I think so."}}
	search := &fakeSearcher{}

	orch := New(st, model, search, 3)
	require.NoError(t, orch.Respond(context.Background(), id, "anthropic.claude-v2"))

	assert.Equal(t, 1, model.calls)
	assert.Empty(t, search.queries)

	msgs := messages(t, st, id)
	require.Len(t, msgs, 2) // user + final assistant
	assert.Equal(t, store.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "I think so.", *msgs[1].Parts[0].Text)
}

func TestRespond_ToolCallThenAnswer(t *testing.T) {
	st, id := newConversation(t)
	model := &fakeModel{script: []string{
		"Let me check. " + toolCallText,
		"It will be sunny.",
	}}
	search := &fakeSearcher{result: "Forecast: sunny, 24C"}

	orch := New(st, model, search, 3)
	require.NoError(t, orch.Respond(context.Background(), id, "anthropic.claude-v2"))

	assert.Equal(t, 2, model.calls)
	assert.Equal(t, []string{"weather today"}, search.queries)

	msgs := messages(t, st, id)
	require.Len(t, msgs, 4)
	assert.Equal(t, store.RoleAssistant, msgs[1].Role) // raw tool-call text
	assert.Contains(t, *msgs[1].Parts[0].Text, "google_search")
	assert.Equal(t, store.RoleUser, msgs[2].Role) // synthetic tool result
	assert.Contains(t, *msgs[2].Parts[0].Text, "Forecast: sunny, 24C")
	assert.Equal(t, store.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "It will be sunny.", *msgs[3].Parts[0].Text)

	// The second invocation must see the tool result: history is
	// re-read from the store, never cached.
	require.Len(t, model.histories, 2)
	assert.Len(t, model.histories[0], 1)
	assert.Len(t, model.histories[1], 3)
}

func TestRespond_ToolCallEveryTurn_BoundForcesTermination(t *testing.T) {
	st, id := newConversation(t)
	model := &fakeModel{script: []string{toolCallText, toolCallText, toolCallText, toolCallText}}
	search := &fakeSearcher{result: "evidence"}

	orch := New(st, model, search, 3)
	require.NoError(t, orch.Respond(context.Background(), id, "anthropic.claude-v2"))

	// Invocations never exceed the bound.
	assert.Equal(t, 3, model.calls)
	assert.Len(t, search.queries, 3)

	// Each turn appends an assistant tool-call plus a synthetic user
	// tool-result: 2 x bound messages after the original user turn.
	msgs := messages(t, st, id)
	require.Len(t, msgs, 7)
	for i := 1; i < 7; i += 2 {
		assert.Equal(t, store.RoleAssistant, msgs[i].Role)
		assert.Equal(t, store.RoleUser, msgs[i+1].Role)
	}
}

func TestRespond_TransportError_PersistedAsAssistantTurn(t *testing.T) {
	st, id := newConversation(t)
	failure := &providers.TransportError{Err: errors.New("connection refused")}
	model := &fakeModel{errs: []error{failure}}

	orch := New(st, model, &fakeSearcher{}, 3)
	require.NoError(t, orch.Respond(context.Background(), id, "anthropic.claude-v2"))

	assert.Equal(t, 1, model.calls)

	msgs := messages(t, st, id)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.RoleAssistant, msgs[1].Role)
	assert.Equal(t, failure.Error(), *msgs[1].Parts[0].Text)
}

func TestRespond_InferenceErrorMidLoop_AbortsWithAssistantTurn(t *testing.T) {
	st, id := newConversation(t)
	failure := &providers.InferenceError{StatusCode: 503, Body: "throttled"}
	model := &fakeModel{
		script: []string{toolCallText},
		errs:   []error{nil, failure},
	}

	orch := New(st, model, &fakeSearcher{result: "evidence"}, 3)
	require.NoError(t, orch.Respond(context.Background(), id, "anthropic.claude-v2"))

	assert.Equal(t, 2, model.calls)

	// user, assistant tool-call, user tool-result, assistant error text
	msgs := messages(t, st, id)
	require.Len(t, msgs, 4)
	assert.Equal(t, store.RoleAssistant, msgs[3].Role)
	assert.Equal(t, failure.Error(), *msgs[3].Parts[0].Text)
}

func TestRespond_UnsupportedProvider_NothingPersisted(t *testing.T) {
	st, id := newConversation(t)
	wrapped := fmt.Errorf("resolve adapter: %w", providers.ErrUnsupportedProvider)
	model := &fakeModel{errs: []error{wrapped}}

	orch := New(st, model, &fakeSearcher{}, 3)
	err := orch.Respond(context.Background(), id, "cohere.command-v14")
	assert.ErrorIs(t, err, providers.ErrUnsupportedProvider)

	msgs := messages(t, st, id)
	assert.Len(t, msgs, 1) // only the original user turn
}

func TestRespond_EmptySearchResultSubstituted(t *testing.T) {
	st, id := newConversation(t)
	model := &fakeModel{script: []string{toolCallText, "final"}}
	search := &fakeSearcher{result: ""}

	orch := New(st, model, search, 3)
	require.NoError(t, orch.Respond(context.Background(), id, "anthropic.claude-v2"))

	msgs := messages(t, st, id)
	require.Len(t, msgs, 4)
	assert.Contains(t, *msgs[2].Parts[0].Text, noResultsText)
}

func TestRespond_CancelledContext(t *testing.T) {
	st, id := newConversation(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeModel{script: []string{"answer"}}
	orch := New(st, model, &fakeSearcher{}, 3)

	err := orch.Respond(ctx, id, "anthropic.claude-v2")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, model.calls)
	assert.Len(t, messages(t, st, id), 1)
}
