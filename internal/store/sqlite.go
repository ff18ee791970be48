package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	// Register the modernc sqlite driver under the name "sqlite".
	_ "modernc.org/sqlite"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/content"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	model      TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, created_at, id);
`

// SQLite is the Store implementation backed by modernc.org/sqlite.
// WAL mode allows concurrent reads; SQLite itself serializes writers,
// which is all the append-only log needs.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" in tests.
func Open(path string) (*SQLite, error) {
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	// Single connection sidesteps table locks from concurrent writers;
	// the per-request flow is synchronous anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// CreateConversation inserts a conversation row with a fresh uuid.
func (s *SQLite) CreateConversation(ctx context.Context, name, model string) (Summary, error) {
	sum := Summary{
		ID:        uuid.New().String(),
		Name:      name,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, name, model, created_at) VALUES (?, ?, ?, ?)`,
		sum.ID, sum.Name, sum.Model, sum.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("store: create conversation: %w", err)
	}
	return sum, nil
}

// AppendMessage encodes the part sequence and appends one message row.
func (s *SQLite) AppendMessage(ctx context.Context, conversationID, role string, parts []content.Part) error {
	encoded, err := content.EncodeParts(parts)
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, role, encoded, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return nil
}

// GetConversation loads metadata and the ordered message log.
func (s *SQLite) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, model, created_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Name, &conv.Model, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get conversation: %w", err)
	}
	conv.CreatedAt = parseTime(created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role, raw, ts string
		if err := rows.Scan(&role, &raw, &ts); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		conv.Messages = append(conv.Messages, Message{
			Role:      role,
			Parts:     content.DecodeParts(raw),
			CreatedAt: parseTime(ts),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate messages: %w", err)
	}
	return &conv, nil
}

// ListConversations returns summaries, most recently created first.
func (s *SQLite) ListConversations(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, model, created_at FROM conversations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Model, &created); err != nil {
			return nil, fmt.Errorf("store: scan conversation: %w", err)
		}
		sum.CreatedAt = parseTime(created)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate conversations: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ Store = (*SQLite)(nil)
