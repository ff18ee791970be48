// Package chat drives the bounded multi-turn conversation loop.
//
// DESIGN: One Respond call is a small state machine:
//
//	AwaitingModel → ToolCheck → { ToolExecuting → AwaitingModel | Terminal }
//
// Each iteration re-reads the full conversation history from the store —
// never cached — so the tool-result message written by ToolExecuting is
// visible to the next model call. Iterations are strictly sequential;
// the loop is bounded by a fixed turn count. Every path to Terminal
// persists an assistant message for the iteration that reached it, so a
// conversation is never left half-written.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/content"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/providers"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/tools"
)

// DefaultMaxTurns bounds the number of model invocations per request.
const DefaultMaxTurns = 3

// SystemPrompt is the fixed instruction describing the tool-call
// protocol. It is sent on every model invocation.
const SystemPrompt = `You are a helpful assistant with access to web search.

When you need current information to answer, respond with exactly one JSON object and nothing else:
{"tool_name": "google_search", "query": "<search terms>"}

The search results will arrive in a follow-up user message; use them to answer. When you can answer without searching, reply with the answer directly and do not include any JSON tool call.`

// noResultsText stands in for an empty search result so the persisted
// tool turn is never blank.
const noResultsText = "No search results were found."

// Completer is the model invocation boundary the orchestrator depends
// on. *providers.Client satisfies it; tests inject fakes.
type Completer interface {
	Complete(ctx context.Context, modelID string, history []store.Message, systemPrompt string) (string, error)
}

// state enumerates the loop's phases.
type state int

const (
	stateAwaitingModel state = iota
	stateToolCheck
	stateToolExecuting
	stateTerminal
)

// Orchestrator runs the turn loop for one conversation at a time.
type Orchestrator struct {
	store    store.Store
	llm      Completer
	searcher tools.Searcher
	maxTurns int
}

// New creates an orchestrator. maxTurns <= 0 uses DefaultMaxTurns.
func New(st store.Store, llm Completer, searcher tools.Searcher, maxTurns int) *Orchestrator {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Orchestrator{store: st, llm: llm, searcher: searcher, maxTurns: maxTurns}
}

// Respond drives the loop until Terminal. On return the conversation
// always holds at least one new assistant message unless the error is
// providers.ErrUnsupportedProvider (raised before any network call) or
// a store failure.
//
// Provider transport/inference failures do not surface as errors: the
// failure text is persisted as the assistant's turn and Respond returns
// nil, keeping conversation state consistent.
func (o *Orchestrator) Respond(ctx context.Context, conversationID, modelID string) error {
	current := stateAwaitingModel
	turn := 0
	var text string
	var call tools.Call

	for current != stateTerminal {
		// Cancellation is honored between steps, never mid-write.
		if err := ctx.Err(); err != nil {
			return err
		}

		switch current {
		case stateAwaitingModel:
			conv, err := o.store.GetConversation(ctx, conversationID)
			if err != nil {
				return fmt.Errorf("chat: read history: %w", err)
			}
			text, err = o.llm.Complete(ctx, modelID, conv.Messages, SystemPrompt)
			if err != nil {
				if errors.Is(err, providers.ErrUnsupportedProvider) {
					return err
				}
				// Transport/inference failure: surface as the
				// assistant's turn so the dialogue stays consistent.
				log.Warn().Err(err).Str("conversation", conversationID).Msg("model invocation failed")
				if perr := o.persistAssistant(ctx, conversationID, err.Error()); perr != nil {
					return perr
				}
				current = stateTerminal
				continue
			}
			current = stateToolCheck

		case stateToolCheck:
			var ok bool
			call, ok = tools.Detect(text)
			if ok && turn < o.maxTurns {
				current = stateToolExecuting
				continue
			}
			// Final answer (or the bound is exhausted: the raw model
			// output, tool payload included, is persisted as the final
			// assistant turn).
			if err := o.persistAssistant(ctx, conversationID, text); err != nil {
				return err
			}
			current = stateTerminal

		case stateToolExecuting:
			// The raw assistant text (containing the tool payload) is
			// persisted first so the transcript reflects what the model
			// actually said.
			if err := o.persistAssistant(ctx, conversationID, text); err != nil {
				return err
			}

			log.Info().
				Str("conversation", conversationID).
				Str("query", call.Query).
				Int("turn", turn+1).
				Msg("executing search tool")
			result := o.searcher.Search(ctx, call.Query)
			if result == "" {
				result = noResultsText
			}

			// Tool results re-enter the model's context as a synthetic
			// user turn: the model sees them as if the user pasted them.
			toolMsg := fmt.Sprintf("Search results for %q:\n\n%s", call.Query, result)
			if err := o.store.AppendMessage(ctx, conversationID, store.RoleUser,
				[]content.Part{content.TextPart(toolMsg)}); err != nil {
				return fmt.Errorf("chat: persist tool result: %w", err)
			}

			turn++
			if turn >= o.maxTurns {
				// Bound reached: terminate without another invocation.
				log.Info().Str("conversation", conversationID).Msg("turn bound reached")
				current = stateTerminal
				continue
			}
			current = stateAwaitingModel
		}
	}
	return nil
}

func (o *Orchestrator) persistAssistant(ctx context.Context, conversationID, text string) error {
	err := o.store.AppendMessage(ctx, conversationID, store.RoleAssistant,
		[]content.Part{content.TextPart(text)})
	if err != nil {
		return fmt.Errorf("chat: persist assistant turn: %w", err)
	}
	return nil
}
