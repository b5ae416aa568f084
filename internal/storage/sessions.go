package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/google/uuid"
)

const sessionColumns = "id, session_key, is_activated, created_at"

// CreateSession inserts a new, not yet activated session with a fresh key.
func (s *Store) CreateSession(ctx context.Context) (*models.UserSession, error) {
	sess := &models.UserSession{
		ID:          s.newID(),
		SessionKey:  uuid.NewString(),
		IsActivated: false,
		CreatedAt:   truncate(s.now()),
	}

	query := s.rebind(`INSERT INTO user_sessions (id, session_key, is_activated, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.SessionKey, sess.IsActivated, toMillis(sess.CreatedAt)); err != nil {
		return nil, unavailable("create session", err)
	}
	return sess, nil
}

// GetSession looks a session up by its external key. A nil session with a nil error means
// the key is unknown.
func (s *Store) GetSession(ctx context.Context, sessionKey string) (*models.UserSession, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, nil
	}

	query := s.rebind(`SELECT ` + sessionColumns + ` FROM user_sessions WHERE session_key = ?`)
	sess, err := scanSession(s.db.QueryRowContext(ctx, query, sessionKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get session", err)
	}
	return sess, nil
}

// ActivateSession marks the session active. Activating twice is harmless.
// A nil session with a nil error means the key is unknown.
func (s *Store) ActivateSession(ctx context.Context, sessionKey string) (*models.UserSession, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, nil
	}

	query := s.rebind(`UPDATE user_sessions SET is_activated = ? WHERE session_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, true, sessionKey); err != nil {
		return nil, unavailable("activate session", err)
	}
	return s.GetSession(ctx, sessionKey)
}

// activeSession resolves the caller for operations that need an activated session.
func (s *Store) activeSession(ctx context.Context, sessionKey string) (*models.UserSession, error) {
	sess, err := s.GetSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActivated {
		return nil, ErrNotActivated
	}
	return sess, nil
}

func scanSession(row rowScanner) (*models.UserSession, error) {
	var (
		sess      models.UserSession
		createdAt int64
	)
	if err := row.Scan(&sess.ID, &sess.SessionKey, &sess.IsActivated, &createdAt); err != nil {
		return nil, err
	}
	sess.CreatedAt = fromMillis(createdAt)
	return &sess, nil
}
