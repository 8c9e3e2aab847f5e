package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager([]byte("test-secret-key-at-least-32-bytes!"))

	token, err := m.GenerateToken("smithLePlusBeau")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() failed: %v", err)
	}
	if claims.Username != "smithLePlusBeau" {
		t.Errorf("username = %q, want smithLePlusBeau", claims.Username)
	}
	if claims.TokenID == "" {
		t.Error("token id is empty")
	}
	if claims.Issuer != Issuer {
		t.Errorf("issuer = %q, want %q", claims.Issuer, Issuer)
	}

	wantExpiry := time.Now().Add(TokenLifetime)
	if got := claims.ExpiresAt.Time; got.Before(wantExpiry.Add(-time.Minute)) || got.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expiry = %v, want about %v", got, wantExpiry)
	}
}

func TestTokenManager_RejectsWrongKey(t *testing.T) {
	m := NewTokenManager([]byte("test-secret-key-at-least-32-bytes!"))
	other := NewTokenManager([]byte("another-secret-key-32-bytes-long!!"))

	token, err := m.GenerateToken("smithLePlusBeau")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.VerifyToken(token); err == nil {
		t.Error("token signed with a different key verified")
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	key := []byte("test-secret-key-at-least-32-bytes!")
	m := NewTokenManager(key)

	claims := &Claims{
		Username: "smithLePlusBeau",
		TokenID:  "expired",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.VerifyToken(token); err == nil {
		t.Error("expired token verified")
	}
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	m := NewTokenManager([]byte("test-secret-key-at-least-32-bytes!"))

	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := m.VerifyToken(tok); err == nil {
			t.Errorf("VerifyToken(%q) accepted garbage", tok)
		}
	}
}

func TestTokenManager_EmptyKey(t *testing.T) {
	m := NewTokenManager(nil)

	if _, err := m.GenerateToken("smithLePlusBeau"); err == nil {
		t.Error("GenerateToken() with empty key succeeded")
	}
	if _, err := m.VerifyToken("whatever"); err == nil {
		t.Error("VerifyToken() with empty key succeeded")
	}
}
