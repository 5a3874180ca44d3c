package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/me/entrena/pkg/model"
)

// Storage keys. They match the keys the web client keeps in local storage.
const (
	KeyUserID      = "user_id"
	KeyRole        = "user_role"
	KeyDisplayName = "user_nombre"
	KeyToken       = "auth_token"
)

// AllKeys lists every key owned by the session.
var AllKeys = []string{KeyUserID, KeyRole, KeyDisplayName, KeyToken}

// Backend is the key/value space the session lives in.
// internal/store.SQLiteStore and MemoryBackend implement it.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Store exposes the session lifecycle over a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore creates a session store over backend.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{backend: backend, logger: logger.With("component", "session")}
}

// SetSession persists every non-empty field of fields. Empty fields leave the
// stored value untouched.
func (s *Store) SetSession(ctx context.Context, fields model.Session) error {
	for _, kv := range []struct{ key, value string }{
		{KeyUserID, fields.UserID},
		{KeyRole, fields.Role},
		{KeyDisplayName, fields.DisplayName},
		{KeyToken, fields.Token},
	} {
		if kv.value == "" {
			continue
		}
		if err := s.backend.Set(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
	}
	s.logger.Debug("session updated", "user_id", fields.UserID, "role", fields.Role)
	return nil
}

// ClearSession removes all session keys in one backend call. Clearing an empty
// session is a no-op.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.backend.Delete(ctx, AllKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Debug("session cleared")
	return nil
}

// Session returns the identity fields. The token is left out; use AuthToken.
func (s *Store) Session(ctx context.Context) (model.Session, error) {
	var sess model.Session
	var err error
	if sess.UserID, err = s.get(ctx, KeyUserID); err != nil {
		return model.Session{}, err
	}
	if sess.Role, err = s.get(ctx, KeyRole); err != nil {
		return model.Session{}, err
	}
	if sess.DisplayName, err = s.get(ctx, KeyDisplayName); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// AuthToken returns the bearer token, or "" when absent.
func (s *Store) AuthToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyToken)
}

// Role returns the stored role, or "" when absent.
func (s *Store) Role(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRole)
}

// AuthHeaders returns an Authorization header carrying the bearer token, or an
// empty header set when no token is stored.
func (s *Store) AuthHeaders(ctx context.Context) (http.Header, error) {
	h := http.Header{}
	token, err := s.AuthToken(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h, nil
}

// Complete reports whether user id, role and token are all present.
func (s *Store) Complete(ctx context.Context) (bool, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return false, err
	}
	if sess.Token, err = s.AuthToken(ctx); err != nil {
		return false, err
	}
	return sess.Complete(), nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", key, err)
	}
	return v, nil
}
