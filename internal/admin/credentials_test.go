package admin

import (
	"testing"

	"github.com/markb/galerie/internal/store"
)

func newTestCredentials(t *testing.T) (*Credentials, *store.Store) {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c, err := LoadCredentials(db)
	if err != nil {
		t.Fatalf("LoadCredentials() failed: %v", err)
	}
	return c, db
}

func TestLoadCredentials_SeedsDefaults(t *testing.T) {
	c, _ := newTestCredentials(t)

	s := c.Get()
	if s.Username != DefaultUsername {
		t.Errorf("Username = %q, want %q", s.Username, DefaultUsername)
	}
	if !s.RequirePasswordChange {
		t.Error("fresh install should require a password change")
	}
	if !IsBcryptHash(s.PasswordHash) {
		t.Error("seeded verifier is not a bcrypt hash")
	}
	if !c.Verify(DefaultUsername, DefaultPassword) {
		t.Error("default credentials do not verify on fresh install")
	}
}

func TestLoadCredentials_MigratesOldVerifier(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// verifier from a pre-bcrypt install: stored as plain text
	old := Settings{
		Username:              DefaultUsername,
		PasswordHash:          "ancienSecret",
		RequirePasswordChange: false,
	}
	if err := db.Set(store.KeyAdmin, old); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCredentials(db)
	if err != nil {
		t.Fatalf("LoadCredentials() failed: %v", err)
	}

	if !c.RequireChange() {
		t.Error("pre-bcrypt verifier must force a password change")
	}
	if !c.Verify(DefaultUsername, "ancienSecret") {
		t.Error("stale verifier must keep working until rotation")
	}

	if err := c.SetPassword("Nouveau123"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	s := c.Get()
	if !IsBcryptHash(s.PasswordHash) {
		t.Error("rotated verifier is not a bcrypt hash")
	}
	if s.MigratedAt == "" {
		t.Error("MigratedAt not recorded on rotation")
	}
}

func TestVerify(t *testing.T) {
	c, _ := newTestCredentials(t)

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"correct pair", DefaultUsername, DefaultPassword, true},
		{"wrong password", DefaultUsername, "4321", false},
		{"unknown username", "autreAdmin", DefaultPassword, false},
		{"both wrong", "autreAdmin", "4321", false},
		{"empty password", DefaultUsername, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Verify(tt.username, tt.password); got != tt.want {
				t.Errorf("Verify(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}

func TestSetPassword_ClearsForcedChange(t *testing.T) {
	c, db := newTestCredentials(t)

	if err := c.SetPassword("Nouveau123"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}

	if c.RequireChange() {
		t.Error("forced-change flag not cleared")
	}
	if c.Verify(DefaultUsername, DefaultPassword) {
		t.Error("old password still verifies after rotation")
	}
	if !c.Verify(DefaultUsername, "Nouveau123") {
		t.Error("new password does not verify")
	}

	// rotation must survive a reload
	reloaded, err := LoadCredentials(db)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Verify(DefaultUsername, "Nouveau123") {
		t.Error("rotated verifier not persisted")
	}
	if reloaded.RequireChange() {
		t.Error("forced-change flag reappeared after reload")
	}
}
