package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	_ "modernc.org/sqlite"

	conversation "github.com/aria-vt/aria-core/core"
)

// Store persists conversation history in a local SQLite database so a
// returning session can restore the agent's memory.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach history database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	turn_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, sessionID, turnID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, turn_id, role, content) VALUES (?, ?, ?, ?)`,
		sessionID, turnID, role, content)
	if err != nil {
		return fmt.Errorf("failed to append history message: %w", err)
	}
	return nil
}

// Recent returns up to limit of the session's newest messages in
// chronological order.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]conversation.HistoryMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var messages []conversation.HistoryMessage
	for rows.Next() {
		var msg conversation.HistoryMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
