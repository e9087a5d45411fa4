package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duetlog/duet-service/internal/domain"
	"github.com/duetlog/duet-service/internal/store"
	"github.com/duetlog/duet-service/internal/utils"
)

const sessionTokenBytes = 32

// SessionManager mints and validates opaque bearer tokens. The raw token is
// returned exactly once at creation; only its SHA-256 hash is persisted, so
// possession of the raw token is the sole credential.
type SessionManager struct {
	store store.Store
	ttl   time.Duration
}

// NewSessionManager creates a session manager with the default session TTL.
func NewSessionManager(st store.Store, ttl time.Duration) *SessionManager {
	return &SessionManager{store: st, ttl: ttl}
}

// Create mints a session with the default TTL.
func (m *SessionManager) Create(ctx context.Context, userID string) (string, time.Time, error) {
	return m.CreateWithTTL(ctx, userID, m.ttl)
}

// CreateWithTTL mints a session token bound to the user. Already-expired
// sessions are purged opportunistically while the transaction is open.
func (m *SessionManager) CreateWithTTL(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	token, err := utils.GenerateToken(sessionTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to mint session token: %w", err)
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: utils.HashToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	err = m.store.Update(ctx, func(state *store.State) error {
		kept := state.Sessions[:0]
		for _, s := range state.Sessions {
			if !s.Expired(now) {
				kept = append(kept, s)
			}
		}
		state.Sessions = append(kept, session)
		return nil
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to save session: %w", err)
	}

	return token, session.ExpiresAt, nil
}

// Verify resolves a raw token into a live session. Expired sessions are
// evicted lazily; an unknown and an expired token are indistinguishable to
// the caller.
func (m *SessionManager) Verify(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized("未授权")
	}

	tokenHash := utils.HashToken(token)
	state, err := m.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	for _, session := range state.Sessions {
		if session.TokenHash != tokenHash {
			continue
		}
		if session.Expired(time.Now().UTC()) {
			if err := m.InvalidateByID(ctx, session.ID); err != nil {
				return nil, err
			}
			return nil, ErrUnauthorized("会话已失效")
		}
		return &session, nil
	}

	return nil, ErrUnauthorized("会话已失效")
}

// Invalidate removes a session by its raw token.
func (m *SessionManager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	tokenHash := utils.HashToken(token)
	return m.store.Update(ctx, func(state *store.State) error {
		kept := state.Sessions[:0]
		for _, s := range state.Sessions {
			if s.TokenHash != tokenHash {
				kept = append(kept, s)
			}
		}
		state.Sessions = kept
		return nil
	})
}

// InvalidateByID removes a session by id, used for internal eviction.
func (m *SessionManager) InvalidateByID(ctx context.Context, id string) error {
	return m.store.Update(ctx, func(state *store.State) error {
		kept := state.Sessions[:0]
		for _, s := range state.Sessions {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		state.Sessions = kept
		return nil
	})
}
