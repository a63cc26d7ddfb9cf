package db

import (
	"context"

	"github.com/socialpulse/backend/internal/model"
)

// Every query filters on user_id; row ownership is not delegated to callers.

const chatSessionColumns = `
	session_id, user_id, title, context_type, context_id, context_data,
	model, mode, message_count, created_at, updated_at
`

func (db *Postgres) EnsureChatSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS chat_sessions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			session_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT 'New Chat',
			context_type TEXT,
			context_id BIGINT,
			context_data JSONB NOT NULL DEFAULT '{}',
			model TEXT NOT NULL DEFAULT 'gemini',
			mode TEXT NOT NULL DEFAULT 'script',
			message_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS chat_sessions_user_updated_idx ON chat_sessions(user_id, updated_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (db *Postgres) CreateChatSession(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (session_id, user_id, title, context_type, context_id, context_data, model, mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + chatSessionColumns

	row := db.Pool.QueryRow(ctx, query,
		s.SessionID, s.UserID, s.Title, s.ContextType, s.ContextID, s.ContextData, s.Model, s.Mode,
	)
	return scanChatSession(row)
}

func (db *Postgres) ListChatSessions(ctx context.Context, userID int64, limit, offset int) ([]model.ChatSession, error) {
	query := `
		SELECT ` + chatSessionColumns + `
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.ChatSession{}
	for rows.Next() {
		s, err := scanChatSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (db *Postgres) GetChatSession(ctx context.Context, userID int64, sessionID string) (*model.ChatSession, error) {
	query := `
		SELECT ` + chatSessionColumns + `
		FROM chat_sessions
		WHERE user_id = $1 AND session_id = $2
	`
	return scanChatSession(db.Pool.QueryRow(ctx, query, userID, sessionID))
}

func (db *Postgres) RenameChatSession(ctx context.Context, userID int64, sessionID, title string) (*model.ChatSession, error) {
	query := `
		UPDATE chat_sessions
		SET title = $3, updated_at = NOW()
		WHERE user_id = $1 AND session_id = $2
		RETURNING ` + chatSessionColumns
	return scanChatSession(db.Pool.QueryRow(ctx, query, userID, sessionID, title))
}

// DeleteChatSession reports whether a row was removed.
func (db *Postgres) DeleteChatSession(ctx context.Context, userID int64, sessionID string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM chat_sessions WHERE user_id = $1 AND session_id = $2`, userID, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChatSession(row rowScanner) (*model.ChatSession, error) {
	var s model.ChatSession
	err := row.Scan(
		&s.SessionID,
		&s.UserID,
		&s.Title,
		&s.ContextType,
		&s.ContextID,
		&s.ContextData,
		&s.Model,
		&s.Mode,
		&s.MessageCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
