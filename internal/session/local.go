package session

import (
	"context"

	"github.com/markb/galerie/internal/admin"
)

// LocalStrategy checks credentials against the bcrypt verifier in the
// local credential store.
type LocalStrategy struct {
	creds *admin.Credentials
}

func NewLocalStrategy(creds *admin.Credentials) *LocalStrategy {
	return &LocalStrategy{creds: creds}
}

// Verify fails closed when the credential store has not been hydrated,
// and authenticates iff the username matches the stored identity and the
// bcrypt comparison succeeds.
func (s *LocalStrategy) Verify(ctx context.Context, username, password string) (Result, error) {
	if !s.creds.Ready() {
		return Result{}, nil
	}
	if !s.creds.Verify(username, password) {
		return Result{}, nil
	}
	return Result{
		Authenticated:      true,
		MustChangePassword: s.creds.RequireChange(),
	}, nil
}

func (s *LocalStrategy) ChangePassword(ctx context.Context, username, newPassword string) error {
	return s.creds.SetPassword(newPassword)
}

// SignOut is a no-op: local verification keeps no session state.
func (s *LocalStrategy) SignOut(ctx context.Context) {}
