package admin

import (
	"sync"
	"time"

	"github.com/markb/galerie/internal/log"
	"github.com/markb/galerie/internal/store"
)

// Default credentials seeded on first run. The forced-change flag
// guarantees they never survive past the first successful login.
const (
	DefaultUsername = "smithLePlusBeau"
	DefaultPassword = "1234"
)

// Settings is the persisted credential record.
type Settings struct {
	Username              string `json:"username"`
	PasswordHash          string `json:"passwordHash"`
	RequirePasswordChange bool   `json:"requirePasswordChange"`
	BcryptVersion         string `json:"bcryptVersion,omitempty"`
	MigratedAt            string `json:"migratedAt,omitempty"`
}

// Credentials wraps the credential record with its snapshot persistence.
type Credentials struct {
	mu       sync.Mutex
	db       *store.Store
	settings Settings
	loaded   bool
}

// LoadCredentials hydrates the credential record, seeding the default
// identity when no record exists and flagging pre-bcrypt verifiers for
// rotation.
func LoadCredentials(db *store.Store) (*Credentials, error) {
	c := &Credentials{db: db}

	found, err := db.Get(store.KeyAdmin, &c.settings)
	if err != nil {
		return nil, err
	}

	if !found {
		hash, err := HashPassword(DefaultPassword)
		if err != nil {
			return nil, err
		}
		c.settings = Settings{
			Username:              DefaultUsername,
			PasswordHash:          hash,
			RequirePasswordChange: true,
		}
		if err := c.persist(); err != nil {
			return nil, err
		}
		log.Info("seeded default admin credentials; password change required on first login")
	} else if c.settings.PasswordHash != "" && !IsBcryptHash(c.settings.PasswordHash) {
		// Old verifier format. Force a rotation on the next login;
		// the stale verifier keeps working until then so the admin
		// is not locked out.
		log.Warn("detected pre-bcrypt password verifier, forcing password change")
		c.settings.RequirePasswordChange = true
		if err := c.persist(); err != nil {
			return nil, err
		}
	}

	c.loaded = true
	return c, nil
}

// Get returns a copy of the current credential record.
func (c *Credentials) Get() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Ready reports whether the credential record has been hydrated.
// Verification fails closed until it has.
func (c *Credentials) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Verify checks a presented username/password pair against the record.
// The pre-bcrypt migration path compares the stale verifier as plain
// text; everything bcrypt-shaped goes through the constant-time compare.
func (c *Credentials) Verify(username, password string) bool {
	c.mu.Lock()
	s := c.settings
	loaded := c.loaded
	c.mu.Unlock()

	if !loaded {
		return false
	}
	if username != s.Username {
		// Burn a compare anyway so an unknown username costs the
		// same as a wrong password.
		VerifyPassword(password, s.PasswordHash)
		return false
	}
	if !IsBcryptHash(s.PasswordHash) {
		return s.PasswordHash == password
	}
	return VerifyPassword(password, s.PasswordHash) == nil
}

// RequireChange reports whether the next successful login must be
// followed by a password change.
func (c *Credentials) RequireChange() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.RequirePasswordChange
}

// SetPassword rotates the verifier to a bcrypt hash of newPassword and
// clears the forced-change flag. Callers enforce the password policy
// before getting here.
func (c *Credentials) SetPassword(newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.settings
	c.settings.PasswordHash = hash
	c.settings.RequirePasswordChange = false
	c.settings.BcryptVersion = "bcrypt-go"
	c.settings.MigratedAt = time.Now().UTC().Format(time.RFC3339)

	if err := c.persist(); err != nil {
		c.settings = prev
		return err
	}
	return nil
}

// ClearRequireChange drops the forced-change flag without touching the
// verifier. Used by the remote strategy, where the verifier lives in the
// external auth service and only the flag is kept locally.
func (c *Credentials) ClearRequireChange() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.settings
	c.settings.RequirePasswordChange = false
	c.settings.MigratedAt = time.Now().UTC().Format(time.RFC3339)

	if err := c.persist(); err != nil {
		c.settings = prev
		return err
	}
	return nil
}

func (c *Credentials) persist() error {
	return c.db.Set(store.KeyAdmin, c.settings)
}
