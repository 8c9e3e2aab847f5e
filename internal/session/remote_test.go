package session

import (
	"context"
	"sync"
	"testing"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/store"
)

// fakeAuthClient emulates the hosted auth service with a single in-memory
// account.
type fakeAuthClient struct {
	email    string
	password string

	signUps    int
	signOuts   int
	lastUpdate string
}

func (f *fakeAuthClient) SignIn(ctx context.Context, email, password string) (string, error) {
	if email != f.email || password != f.password {
		return "", ErrSignInRejected
	}
	return "fake-access-token", nil
}

func (f *fakeAuthClient) SignUp(ctx context.Context, email, password string) error {
	f.email = email
	f.password = password
	f.signUps++
	return nil
}

func (f *fakeAuthClient) SignOut(ctx context.Context, accessToken string) error {
	f.signOuts++
	return nil
}

func (f *fakeAuthClient) UpdateUser(ctx context.Context, accessToken, newPassword string) error {
	f.password = newPassword
	f.lastUpdate = newPassword
	return nil
}

func newRemoteStrategy(t *testing.T, client AuthClient) (*RemoteStrategy, *admin.Credentials) {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	creds, err := admin.LoadCredentials(db)
	if err != nil {
		t.Fatalf("LoadCredentials() failed: %v", err)
	}
	return NewRemoteStrategy(client, creds), creds
}

func TestRemoteStrategy_BootstrapOnFirstLogin(t *testing.T) {
	client := &fakeAuthClient{}
	s, _ := newRemoteStrategy(t, client)

	res, err := s.Verify(context.Background(), admin.DefaultUsername, admin.DefaultPassword)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if !res.Authenticated {
		t.Error("bootstrap login not authenticated")
	}
	if !res.MustChangePassword {
		t.Error("seeded account should owe a password change")
	}
	if client.signUps != 1 {
		t.Errorf("signUps = %d, want 1", client.signUps)
	}
	if want := admin.DefaultUsername + "@" + SyntheticDomain; client.email != want {
		t.Errorf("provisioned address = %q, want %q", client.email, want)
	}
}

func TestRemoteStrategy_NoBootstrapForOtherCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", admin.DefaultUsername, "4321"},
		{"unknown username", "inconnu", admin.DefaultPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeAuthClient{}
			s, _ := newRemoteStrategy(t, client)

			res, err := s.Verify(context.Background(), tt.username, tt.password)
			if err != nil {
				t.Fatalf("Verify() failed: %v", err)
			}
			if res.Authenticated {
				t.Error("rejected pair authenticated")
			}
			if client.signUps != 0 {
				t.Errorf("signUps = %d, non-default pair must not provision", client.signUps)
			}
		})
	}
}

func TestRemoteStrategy_ChangePasswordClearsFlag(t *testing.T) {
	client := &fakeAuthClient{}
	s, creds := newRemoteStrategy(t, client)
	ctx := context.Background()

	if _, err := s.Verify(ctx, admin.DefaultUsername, admin.DefaultPassword); err != nil {
		t.Fatal(err)
	}
	if err := s.ChangePassword(ctx, admin.DefaultUsername, "Nouveau123"); err != nil {
		t.Fatalf("ChangePassword() failed: %v", err)
	}

	if client.lastUpdate != "Nouveau123" {
		t.Errorf("remote password = %q, want Nouveau123", client.lastUpdate)
	}
	if creds.RequireChange() {
		t.Error("forced-change flag survived the remote change")
	}

	// The rotated pair signs in with no further provisioning.
	res, err := s.Verify(ctx, admin.DefaultUsername, "Nouveau123")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Authenticated || res.MustChangePassword {
		t.Errorf("post-rotation login: %+v", res)
	}
	if client.signUps != 1 {
		t.Errorf("signUps = %d, want 1", client.signUps)
	}
}

func TestRemoteStrategy_ChangePasswordWithoutSession(t *testing.T) {
	s, _ := newRemoteStrategy(t, &fakeAuthClient{})

	if err := s.ChangePassword(context.Background(), admin.DefaultUsername, "Nouveau123"); err == nil {
		t.Error("ChangePassword() without a sign-in succeeded")
	}
}

// Verify runs outside the gate's lock, so simultaneous login attempts
// hit the strategy in parallel and must not corrupt the cached token.
func TestRemoteStrategy_ConcurrentVerify(t *testing.T) {
	client := &fakeAuthClient{
		email:    admin.DefaultUsername + "@" + SyntheticDomain,
		password: "Nouveau123",
	}
	s, _ := newRemoteStrategy(t, client)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	results := make([]Result, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Verify(ctx, admin.DefaultUsername, "Nouveau123")
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("concurrent Verify() #%d failed: %v", i, errs[i])
		}
		if !results[i].Authenticated {
			t.Errorf("concurrent Verify() #%d not authenticated", i)
		}
	}

	// The surviving token still backs the session operations.
	if err := s.ChangePassword(ctx, admin.DefaultUsername, "Encore456"); err != nil {
		t.Errorf("ChangePassword() after concurrent logins failed: %v", err)
	}
	s.SignOut(ctx)
	if client.signOuts != 1 {
		t.Errorf("signOuts = %d, want 1", client.signOuts)
	}
}

func TestRemoteStrategy_SignOut(t *testing.T) {
	client := &fakeAuthClient{}
	s, _ := newRemoteStrategy(t, client)
	ctx := context.Background()

	s.SignOut(ctx)
	if client.signOuts != 0 {
		t.Error("SignOut() without a session hit the service")
	}

	if _, err := s.Verify(ctx, admin.DefaultUsername, admin.DefaultPassword); err != nil {
		t.Fatal(err)
	}
	s.SignOut(ctx)
	if client.signOuts != 1 {
		t.Errorf("signOuts = %d, want 1", client.signOuts)
	}
}
