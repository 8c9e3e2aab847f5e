// Package session implements the admin login gate: verifier strategies,
// the login state machine and session token issuance.
package session

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is the only error surfaced to users for a failed
// login. It deliberately does not distinguish an unknown identifier from
// a wrong password.
var ErrInvalidCredentials = errors.New("identifiant ou mot de passe incorrect")

// ErrSignInRejected is returned by an AuthClient when the remote service
// rejected the credential pair (as opposed to failing outright).
var ErrSignInRejected = errors.New("sign-in rejected by auth service")

// Result is the outcome of a successful credential verification.
type Result struct {
	Authenticated      bool
	MustChangePassword bool
}

// Strategy verifies presented credentials and rotates the verifier.
// Exactly one implementation is active per process, selected at startup:
// LocalStrategy (bcrypt against the snapshot store) or RemoteStrategy
// (delegation to the hosted auth service).
//
// Callers check input presence before invoking Verify; empty fields never
// reach a strategy. SignOut releases whatever session state the strategy
// holds; local verification holds none, so it is a no-op there.
type Strategy interface {
	Verify(ctx context.Context, username, password string) (Result, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
	SignOut(ctx context.Context)
}
