// Package keys manages the API keys of the embedded backend emulation.
//
// The backend speaks the same dialect as the hosted service the remote
// auth mode targets, so it hands out the same two long-lived tokens:
// an anon key for clients and a service key for server-side use. Two
// signing modes are supported:
//   - ES256 (default): asymmetric ECDSA P-256, persisted to disk, with
//     a JWKS endpoint for public key discovery
//   - HS256 (legacy): symmetric signing with a configured secret
//
// In ES256 mode the key pair, both tokens and the project reference are
// written to <data-dir>/keys.json on first run and reloaded afterwards.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// KeyID is the "kid" header and JWKS entry for the signing key.
	KeyID = "galerie-key-1"

	// Issuer is the issuer claim on anon and service tokens.
	Issuer = "galerie"

	// TokenLifetime is the lifetime of the anon and service tokens.
	// They act as API keys rather than sessions, hence 10 years.
	TokenLifetime = time.Hour * 24 * 365 * 10

	// RoleAnon and RoleService are the role claims baked into the two
	// API keys.
	RoleAnon    = "anon"
	RoleService = "service_role"
)

// Manager holds the signing key material and the two generated API keys.
type Manager struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	jwtSecret  []byte
	useLegacy  bool

	anonKey    string
	serviceKey string
	projectRef string

	keysFilePath string
}

// StoredKeys is the on-disk shape of keys.json. The private key is kept
// in PEM form.
type StoredKeys struct {
	PrivateKeyPEM string    `json:"private_key_pem"`
	AnonKey       string    `json:"anon_key"`
	ServiceKey    string    `json:"service_key"`
	ProjectRef    string    `json:"project_ref"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewManager loads or generates key material under dataDir.
//
// An empty jwtSecret selects ES256 mode with persisted keys. A non-empty
// secret selects legacy HS256 mode, where tokens are derived from the
// secret on every start and nothing is written to disk.
func NewManager(dataDir string, jwtSecret string) (*Manager, error) {
	m := &Manager{
		keysFilePath: filepath.Join(dataDir, "keys.json"),
	}

	if jwtSecret != "" {
		m.useLegacy = true
		m.jwtSecret = []byte(jwtSecret)
		if err := m.generateLegacyTokens(); err != nil {
			return nil, err
		}
		return m, nil
	}

	if err := m.loadOrGenerateKeys(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) loadOrGenerateKeys() error {
	if data, err := os.ReadFile(m.keysFilePath); err == nil {
		var stored StoredKeys
		if err := json.Unmarshal(data, &stored); err == nil {
			block, _ := pem.Decode([]byte(stored.PrivateKeyPEM))
			if block != nil {
				key, err := x509.ParseECPrivateKey(block.Bytes)
				if err == nil {
					m.privateKey = key
					m.publicKey = &key.PublicKey
					m.anonKey = stored.AnonKey
					m.serviceKey = stored.ServiceKey
					m.projectRef = stored.ProjectRef
					return nil
				}
			}
		}
		// Unreadable keys.json falls through to regeneration.
	}

	return m.generateKeys()
}

func (m *Manager) generateKeys() error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	m.privateKey = privateKey
	m.publicKey = &privateKey.PublicKey
	m.projectRef = generateProjectRef()

	anonToken, err := m.generateToken(RoleAnon)
	if err != nil {
		return fmt.Errorf("failed to generate anon token: %w", err)
	}
	serviceToken, err := m.generateToken(RoleService)
	if err != nil {
		return fmt.Errorf("failed to generate service token: %w", err)
	}
	m.anonKey = anonToken
	m.serviceKey = serviceToken

	if err := m.saveKeys(); err != nil {
		return fmt.Errorf("failed to save keys: %w", err)
	}
	return nil
}

func (m *Manager) generateLegacyTokens() error {
	if len(m.jwtSecret) == 0 {
		return fmt.Errorf("JWT secret not provided")
	}

	m.projectRef = generateProjectRef()

	for _, role := range []string{RoleAnon, RoleService} {
		token, err := buildToken(m.projectRef, role)
		if err != nil {
			return fmt.Errorf("failed to build %s token: %w", role, err)
		}
		signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, m.jwtSecret))
		if err != nil {
			return fmt.Errorf("failed to sign %s token: %w", role, err)
		}
		if role == RoleAnon {
			m.anonKey = string(signed)
		} else {
			m.serviceKey = string(signed)
		}
	}
	return nil
}

func (m *Manager) generateToken(role string) (string, error) {
	token, err := buildToken(m.projectRef, role)
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, m.privateKey))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

func buildToken(projectRef, role string) (jwt.Token, error) {
	now := time.Now()
	return jwt.NewBuilder().
		Issuer(Issuer).
		Claim("ref", projectRef).
		Claim("role", role).
		IssuedAt(now).
		Expiration(now.Add(TokenLifetime)).
		Build()
}

// saveKeys writes keys.json with owner-only permissions.
func (m *Manager) saveKeys() error {
	privateKeyBytes, err := x509.MarshalECPrivateKey(m.privateKey)
	if err != nil {
		return err
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privateKeyBytes,
	})

	stored := StoredKeys{
		PrivateKeyPEM: string(privateKeyPEM),
		AnonKey:       m.anonKey,
		ServiceKey:    m.serviceKey,
		ProjectRef:    m.projectRef,
		CreatedAt:     time.Now(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.keysFilePath, data, 0600)
}

// GetAnonKey returns the public client token.
func (m *Manager) GetAnonKey() string {
	return m.anonKey
}

// GetServiceKey returns the administrative token. Server-side use only.
func (m *Manager) GetServiceKey() string {
	return m.serviceKey
}

// GetProjectRef returns the 20-character instance identifier carried in
// the token claims.
func (m *Manager) GetProjectRef() string {
	return m.projectRef
}

// GetJWKS returns the public key set for token verification by clients.
// Only available in ES256 mode.
func (m *Manager) GetJWKS() (map[string]interface{}, error) {
	if m.useLegacy {
		return nil, fmt.Errorf("JWKS not available in legacy mode")
	}

	xBytes := m.publicKey.X.Bytes()
	yBytes := m.publicKey.Y.Bytes()

	jwks := map[string]interface{}{
		"keys": []map[string]interface{}{
			{
				"kty": "EC",
				"kid": KeyID,
				"use": "sig",
				"alg": "ES256",
				"crv": "P-256",
				"x":   base64.RawURLEncoding.EncodeToString(xBytes),
				"y":   base64.RawURLEncoding.EncodeToString(yBytes),
			},
		},
	}
	return jwks, nil
}

// VerifyToken checks the signature and expiry of an API key and returns
// the parsed token.
func (m *Manager) VerifyToken(tokenString string) (jwt.Token, error) {
	if m.useLegacy {
		return jwt.ParseString(tokenString, jwt.WithKey(jwa.HS256, m.jwtSecret))
	}
	return jwt.ParseString(tokenString, jwt.WithKey(jwa.ES256, m.publicKey))
}

// IsLegacyMode reports whether the manager signs with HS256.
func (m *Manager) IsLegacyMode() bool {
	return m.useLegacy
}

func generateProjectRef() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 20)
	for i := range b {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		b[i] = charset[n.Int64()]
	}
	return string(b)
}
