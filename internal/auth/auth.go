// Package auth is the stub session gate: one fixed credential pair, a
// session-scoped slot holding the signed-in user, and permission checks for
// command gating. It is not a security boundary.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mskboard/pkg/domain"
)

const (
	// AdminEmail is the only accepted login.
	AdminEmail = "hsmanager@company.com"
	// AdminPassword is the password paired with AdminEmail.
	AdminPassword = "admin123"
	// DefaultDelay emulates a network round trip on every attempt.
	DefaultDelay = 500 * time.Millisecond
)

// User-facing login failure messages stored on the state error field.
const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgLoginFailed        = "An error occurred during login. Please try again."
)

var (
	// ErrInvalidCredentials is returned by Login when the pair does not match.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrUnauthenticated is returned when no user is signed in.
	ErrUnauthenticated = errors.New("auth: not signed in")
	// ErrForbidden is returned when the signed-in user lacks a permission.
	ErrForbidden = errors.New("auth: permission denied")
)

// AdminUser returns the record handed out on a successful login.
func AdminUser() domain.AdminUser {
	return domain.AdminUser{
		ID:         "1",
		Email:      AdminEmail,
		Name:       "Health & Safety Manager",
		Role:       "Health & Safety Manager",
		Department: "Health & Safety",
		Permissions: []string{
			domain.PermissionViewSuggestions,
			domain.PermissionCreateSuggestions,
			domain.PermissionUpdateSuggestions,
			domain.PermissionDeleteSuggestions,
		},
	}
}

// Authenticator checks credentials against the fixed pair.
type Authenticator struct {
	email    string
	password string
	delay    time.Duration
}

// AuthenticatorOption customises an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithDelay overrides the artificial latency. Zero disables it.
func WithDelay(d time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		if d >= 0 {
			a.delay = d
		}
	}
}

// NewAuthenticator returns an authenticator for the built-in admin account.
func NewAuthenticator(opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{email: AdminEmail, password: AdminPassword, delay: DefaultDelay}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Delay reports the configured latency.
func (a *Authenticator) Delay() time.Duration { return a.delay }

// Authenticate waits out the delay and reports whether email and password
// match exactly. A cancelled wait counts as a failed attempt.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (domain.AdminUser, bool) {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.AdminUser{}, false
		}
	}
	if email != a.email || password != a.password {
		return domain.AdminUser{}, false
	}
	return AdminUser(), true
}

// PermissionError names the permission a command required.
type PermissionError struct {
	Permission string
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("auth: permission %q required", e.Permission)
}

// Unwrap lets errors.Is match ErrForbidden.
func (e PermissionError) Unwrap() error { return ErrForbidden }
