package session

import (
	"context"
	"errors"
	"sync"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/log"
)

// State of the login gate.
type State int

const (
	StateLoggedOut State = iota
	StatePendingPasswordChange
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StatePendingPasswordChange:
		return "pending_password_change"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var (
	// ErrMissingCredentials is the presence check performed before any
	// strategy is consulted.
	ErrMissingCredentials = errors.New("identifiant et mot de passe requis")

	// ErrNotPending rejects a password change outside the forced-change
	// window.
	ErrNotPending = errors.New("no password change pending")
)

// LoginResult is what a successful Login hands back to the transport
// layer. Token is only set once the gate is fully authenticated.
type LoginResult struct {
	State State
	Token string
}

// Gate is the admin login state machine:
//
//	LoggedOut -> PendingPasswordChange -> Authenticated
//	LoggedOut -> Authenticated
//	any       -> LoggedOut (logout / panel close)
//
// Invalid credentials never transition state. There is no lockout or
// backoff: every failed attempt is immediately retryable.
type Gate struct {
	mu       sync.Mutex
	state    State
	username string

	strategy Strategy
	tokens   *TokenManager
}

func NewGate(strategy Strategy, tokens *TokenManager) *Gate {
	return &Gate{
		state:    StateLoggedOut,
		strategy: strategy,
		tokens:   tokens,
	}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Login submits a credential pair from the LoggedOut state.
//
// On success the gate moves to Authenticated (token issued) or, when a
// password change is owed, to PendingPasswordChange (no token yet). On
// failure the state is untouched and the caller gets the generic
// ErrInvalidCredentials regardless of which part of the pair was wrong.
func (g *Gate) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	res, err := g.strategy.Verify(ctx, username, password)
	if err != nil {
		log.Error("credential verification failed", "error", err)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !res.Authenticated {
		log.Warn("failed admin login attempt")
		return LoginResult{}, ErrInvalidCredentials
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.username = username
	if res.MustChangePassword {
		g.state = StatePendingPasswordChange
		return LoginResult{State: g.state}, nil
	}

	token, err := g.tokens.GenerateToken(username)
	if err != nil {
		g.state = StateLoggedOut
		return LoginResult{}, err
	}
	g.state = StateAuthenticated
	log.Info("admin logged in")
	return LoginResult{State: g.state, Token: token}, nil
}

// CompletePasswordChange finishes the forced-change flow. The policy is
// enforced here; a weak-but-long-enough password needs allowWeak set,
// which the UI only sends after an explicit user confirmation.
func (g *Gate) CompletePasswordChange(ctx context.Context, newPassword, confirmation string, allowWeak bool) (LoginResult, error) {
	g.mu.Lock()
	if g.state != StatePendingPasswordChange {
		g.mu.Unlock()
		return LoginResult{}, ErrNotPending
	}
	username := g.username
	g.mu.Unlock()

	if err := admin.CheckNewPassword(newPassword, confirmation, allowWeak); err != nil {
		return LoginResult{}, err
	}
	if err := g.strategy.ChangePassword(ctx, username, newPassword); err != nil {
		return LoginResult{}, err
	}

	token, err := g.tokens.GenerateToken(username)
	if err != nil {
		return LoginResult{}, err
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.mu.Unlock()

	log.Info("admin password changed")
	return LoginResult{State: StateAuthenticated, Token: token}, nil
}

// Logout resets the gate to LoggedOut. Closing the admin panel and an
// explicit logout land here alike.
func (g *Gate) Logout(ctx context.Context) {
	g.mu.Lock()
	g.state = StateLoggedOut
	g.username = ""
	strategy := g.strategy
	g.mu.Unlock()

	strategy.SignOut(ctx)
}
