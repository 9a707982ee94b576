package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geocapture/internal/model"
	"geocapture/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores an issued session.
func (r *SessionRepository) Insert(ctx context.Context, session *model.Session) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES (?, ?, ?)
	`, session.AccessToken, session.UserID, session.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by access token.
func (r *SessionRepository) Get(ctx context.Context, token string) (*model.Session, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var session model.Session
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT token, user_id, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&session.AccessToken, &session.UserID, &session.ExpiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// Delete removes a session. Deleting a missing token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired at or before now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
