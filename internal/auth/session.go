package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kvcore "mskboard/internal/kv/core"
	"mskboard/pkg/domain"
)

// SessionKey is the session-scoped slot holding the signed-in user.
const SessionKey = "msk-user"

// Session stores one AdminUser record in a session-scoped slot.
type Session struct {
	slot kvcore.Store
}

// NewSession wraps slot.
func NewSession(slot kvcore.Store) *Session {
	return &Session{slot: slot}
}

// Load returns the stored user. ok is false when the slot is empty.
func (s *Session) Load(ctx context.Context) (user domain.AdminUser, ok bool, err error) {
	data, err := s.slot.Get(ctx, SessionKey)
	if errors.Is(err, kvcore.ErrNotFound) {
		return domain.AdminUser{}, false, nil
	}
	if err != nil {
		return domain.AdminUser{}, false, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return domain.AdminUser{}, false, fmt.Errorf("decode session: %w", err)
	}
	return user, true, nil
}

// Save replaces the stored user.
func (s *Session) Save(ctx context.Context, user domain.AdminUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.slot.Set(ctx, SessionKey, data); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the stored user.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.slot.Remove(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
