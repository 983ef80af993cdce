package auth

import (
	"context"

	"mskboard/internal/core"
	"mskboard/pkg/domain"
)

// UserStore is the slice of the state store the gate drives.
type UserStore interface {
	SetCurrentUser(ctx context.Context, user *domain.AdminUser) error
	SetLoading(ctx context.Context, loading bool)
	SetError(ctx context.Context, message string)
}

// Gate ties the authenticator, the session slot and the store's current user
// together.
type Gate struct {
	auth    *Authenticator
	session *Session
	store   UserStore
	logger  core.Logger
}

// GateOption customises a Gate.
type GateOption func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(l core.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate wires a gate. A nil authenticator uses the defaults.
func NewGate(a *Authenticator, session *Session, store UserStore, opts ...GateOption) *Gate {
	if a == nil {
		a = NewAuthenticator()
	}
	g := &Gate{auth: a, session: session, store: store, logger: core.NoopLogger()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login authenticates and, on success, records the user in the session slot
// and then on the store. When the store write fails the session record is
// removed again so both sides agree. The store's loading flag is raised for
// the attempt and its error field carries the user-facing failure message.
func (g *Gate) Login(ctx context.Context, email, password string) (domain.AdminUser, error) {
	g.store.SetLoading(ctx, true)
	g.store.SetError(ctx, "")
	defer g.store.SetLoading(ctx, false)

	user, ok := g.auth.Authenticate(ctx, email, password)
	if !ok {
		g.logger.Warn("login rejected", "email", email)
		g.store.SetError(ctx, MsgInvalidCredentials)
		return domain.AdminUser{}, ErrInvalidCredentials
	}
	if err := g.session.Save(ctx, user); err != nil {
		g.logger.Error("login failed", "email", email, "error", err)
		g.store.SetError(ctx, MsgLoginFailed)
		return domain.AdminUser{}, err
	}
	if err := g.store.SetCurrentUser(ctx, &user); err != nil {
		g.logger.Error("login failed", "email", email, "error", err)
		if clearErr := g.session.Clear(ctx); clearErr != nil {
			g.logger.Error("session rollback failed", "error", clearErr)
		}
		g.store.SetError(ctx, MsgLoginFailed)
		return domain.AdminUser{}, err
	}
	g.logger.Info("login succeeded", "user", user.ID)
	return user, nil
}

// Logout clears the store's current user and the session slot.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.store.SetCurrentUser(ctx, nil); err != nil {
		return err
	}
	if err := g.session.Clear(ctx); err != nil {
		return err
	}
	g.logger.Info("logged out")
	return nil
}

// IsAuthenticated reports whether the session slot holds a user.
func (g *Gate) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := g.session.Load(ctx)
	if err != nil {
		g.logger.Warn("session unreadable", "error", err)
		return false
	}
	return ok
}

// CurrentUser returns the signed-in user from the session slot.
func (g *Gate) CurrentUser(ctx context.Context) (domain.AdminUser, error) {
	user, ok, err := g.session.Load(ctx)
	if err != nil {
		return domain.AdminUser{}, err
	}
	if !ok {
		return domain.AdminUser{}, ErrUnauthenticated
	}
	return user, nil
}

// Require returns the signed-in user when it carries every listed permission.
func (g *Gate) Require(ctx context.Context, permissions ...string) (domain.AdminUser, error) {
	user, err := g.CurrentUser(ctx)
	if err != nil {
		return domain.AdminUser{}, err
	}
	for _, p := range permissions {
		if !user.HasPermission(p) {
			return domain.AdminUser{}, PermissionError{Permission: p}
		}
	}
	return user, nil
}
