package backend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/markb/galerie/internal/admin"
)

var (
	// ErrUserExists is returned by CreateUser for a duplicate email.
	ErrUserExists = errors.New("user already registered")

	// ErrBadCredentials is returned by Authenticate when the email is
	// unknown or the password does not match.
	ErrBadCredentials = errors.New("invalid login credentials")

	// ErrUserNotFound is returned by lookups for an unknown user id.
	ErrUserNotFound = errors.New("user not found")
)

// User is an account row of the auth schema.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// UserStore is the account storage consumed by the auth API.
type UserStore interface {
	CreateUser(ctx context.Context, email, password string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, newPassword string) error
}

// PGUserStore keeps accounts in auth.users with bcrypt password
// verifiers.
type PGUserStore struct {
	db *EmbeddedDB
}

func NewPGUserStore(db *EmbeddedDB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) CreateUser(ctx context.Context, email, password string) (*User, error) {
	hash, err := admin.HashPassword(password)
	if err != nil {
		return nil, err
	}

	conn, err := s.db.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth.users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err = conn.Exec(ctx,
		`INSERT INTO auth.users (id, email, encrypted_password, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, hash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PGUserStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	conn, err := s.db.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	var user User
	var hash string
	err = conn.QueryRow(ctx,
		`SELECT id, email, encrypted_password, created_at, updated_at
		 FROM auth.users WHERE email = $1`, email).
		Scan(&user.ID, &user.Email, &hash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Burn a comparison so unknown addresses take as long as
		// wrong passwords.
		bcrypt.CompareHashAndPassword([]byte("$2a$12$000000000000000000000uGyEkpzhYM6S2iPbd2uO6NQ1lYeT7hAe"), []byte(password))
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if admin.VerifyPassword(password, hash) != nil {
		return nil, ErrBadCredentials
	}

	now := time.Now()
	user.LastSignInAt = &now
	_, err = conn.Exec(ctx,
		`UPDATE auth.users SET last_sign_in_at = $1 WHERE id = $2`, now, user.ID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PGUserStore) GetUser(ctx context.Context, id string) (*User, error) {
	conn, err := s.db.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	var user User
	err = conn.QueryRow(ctx,
		`SELECT id, email, created_at, updated_at, last_sign_in_at
		 FROM auth.users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt, &user.LastSignInAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PGUserStore) UpdatePassword(ctx context.Context, id, newPassword string) error {
	hash, err := admin.HashPassword(newPassword)
	if err != nil {
		return err
	}

	conn, err := s.db.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	tag, err := conn.Exec(ctx,
		`UPDATE auth.users SET encrypted_password = $1, updated_at = now() WHERE id = $2`,
		hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
