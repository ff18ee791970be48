// Package store persists conversations and their message logs.
//
// DESIGN: Conversations are created once and never mutated; messages are
// strictly appended, never updated or deleted. Ordering within a
// conversation is (created_at, insertion id), which stays monotonic even
// when two appends land in the same clock tick.
//
// Message content is stored as an opaque serialized string. This package
// owns the encode/decode contract: a JSON array of content parts on
// write, a tolerant decode on read that wraps legacy plain-text rows as
// a single text part.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/content"
)

// Message roles. Tool results are re-injected under RoleUser so the
// model sees search evidence as if the user supplied it.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound is returned when a conversation id does not exist.
var ErrNotFound = errors.New("conversation not found")

// Summary is conversation metadata without the message log.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a full dialogue: metadata plus the ordered message log.
type Conversation struct {
	Summary
	Messages []Message `json:"messages"`
}

// Message is one turn in a conversation. Parts is never empty for a
// persisted message.
type Message struct {
	Role      string         `json:"role"`
	Parts     []content.Part `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store is the persistence boundary for the chat core.
type Store interface {
	// CreateConversation registers a new dialogue and returns its metadata.
	CreateConversation(ctx context.Context, name, model string) (Summary, error)

	// AppendMessage adds one message to a conversation's log.
	AppendMessage(ctx context.Context, conversationID, role string, parts []content.Part) error

	// GetConversation returns a conversation with its ordered messages,
	// or ErrNotFound.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// ListConversations returns summaries, most recently created first.
	ListConversations(ctx context.Context) ([]Summary, error)

	// Close releases the underlying database.
	Close() error
}
