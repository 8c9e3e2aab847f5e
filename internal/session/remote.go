package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/log"
)

// SyntheticDomain maps the local admin username to an address the hosted
// auth service accepts as an identity.
const SyntheticDomain = "galerie.local"

// AuthClient is the slice of the hosted auth service consumed by the
// remote strategy.
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (accessToken string, err error)
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context, accessToken string) error
	UpdateUser(ctx context.Context, accessToken, newPassword string) error
}

// RemoteStrategy delegates credential checks to the hosted auth service.
// No verifier is stored locally; only the forced-change flag lives in the
// local credential record.
type RemoteStrategy struct {
	client AuthClient
	creds  *admin.Credentials

	// mu guards accessToken; Verify runs outside the gate's lock, so
	// concurrent login attempts reach this strategy in parallel.
	mu sync.Mutex
	// token of the last successful sign-in, needed for UpdateUser
	accessToken string
}

func NewRemoteStrategy(client AuthClient, creds *admin.Credentials) *RemoteStrategy {
	return &RemoteStrategy{client: client, creds: creds}
}

// Verify signs in with the synthetic address. When the service rejects
// the pair but it equals the seeded defaults, the account has never been
// provisioned: sign up just-in-time and retry once (first-ever-login
// bootstrap). Any other failure surfaces as not-authenticated.
func (s *RemoteStrategy) Verify(ctx context.Context, username, password string) (Result, error) {
	email := syntheticAddress(username)

	token, err := s.client.SignIn(ctx, email, password)
	if errors.Is(err, ErrSignInRejected) &&
		username == admin.DefaultUsername && password == admin.DefaultPassword {
		log.Info("bootstrapping remote admin account")
		if err := s.client.SignUp(ctx, email, password); err != nil {
			return Result{}, fmt.Errorf("bootstrap sign-up failed: %w", err)
		}
		token, err = s.client.SignIn(ctx, email, password)
	}
	if errors.Is(err, ErrSignInRejected) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
	return Result{
		Authenticated:      true,
		MustChangePassword: s.creds.RequireChange(),
	}, nil
}

func (s *RemoteStrategy) ChangePassword(ctx context.Context, username, newPassword string) error {
	s.mu.Lock()
	token := s.accessToken
	s.mu.Unlock()

	if token == "" {
		return errors.New("no active remote session")
	}
	if err := s.client.UpdateUser(ctx, token, newPassword); err != nil {
		return err
	}
	return s.creds.ClearRequireChange()
}

// SignOut drops the remote session, if any.
func (s *RemoteStrategy) SignOut(ctx context.Context) {
	s.mu.Lock()
	token := s.accessToken
	s.accessToken = ""
	s.mu.Unlock()

	if token == "" {
		return
	}
	if err := s.client.SignOut(ctx, token); err != nil {
		log.Warn("remote sign-out failed", "error", err)
	}
}

func syntheticAddress(username string) string {
	return fmt.Sprintf("%s@%s", username, SyntheticDomain)
}
