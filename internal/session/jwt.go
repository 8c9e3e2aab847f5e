package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenLifetime is the lifetime of admin session tokens. Sessions
	// are interactive, so 24 hours.
	TokenLifetime = time.Hour * 24

	// Issuer is the JWT issuer claim for admin session tokens.
	Issuer = "galerie-admin"
)

// TokenManager handles JWT generation and verification for admin sessions.
//
// Tokens use HS256 signing with a secret provided at startup (or generated
// on first run). Claims carry the admin username and a unique token id.
type TokenManager struct {
	secretKey []byte
}

// Claims are the JWT claims for an admin session.
type Claims struct {
	Username string `json:"username"`
	TokenID  string `json:"token_id"`
	jwt.RegisteredClaims
}

func NewTokenManager(secretKey []byte) *TokenManager {
	return &TokenManager{secretKey: secretKey}
}

// GenerateToken signs a session token for the given admin username.
func (m *TokenManager) GenerateToken(username string) (string, error) {
	if len(m.secretKey) == 0 {
		return "", errors.New("secret key is empty")
	}

	now := time.Now()
	claims := &Claims{
		Username: username,
		TokenID:  uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken validates signature and expiry and returns the claims.
func (m *TokenManager) VerifyToken(tokenString string) (*Claims, error) {
	if len(m.secretKey) == 0 {
		return nil, errors.New("secret key is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
