package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SignedURLDefaultTTL is the validity window of signed download links.
const SignedURLDefaultTTL = time.Hour

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrBadObjectName  = errors.New("invalid object name")
)

// FileStore keeps uploaded images on disk under <dataDir>/storage and
// hands out time-limited signed download links. When a database is
// attached, object metadata is mirrored into storage.objects.
type FileStore struct {
	root   string
	secret []byte
	db     *EmbeddedDB
}

func NewFileStore(dataDir string, signingSecret []byte, db *EmbeddedDB) (*FileStore, error) {
	root := filepath.Join(dataDir, "storage")
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{root: root, secret: signingSecret, db: db}, nil
}

// Upload stores an object. The name may contain slashes for folder-like
// grouping but never path traversal.
func (fs *FileStore) Upload(ctx context.Context, bucket, name string, r io.Reader) error {
	path, err := fs.objectPath(bucket, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}

	return fs.recordObject(ctx, bucket, name, size)
}

// Remove deletes an object. Removing a missing object is not an error.
func (fs *FileStore) Remove(ctx context.Context, bucket, name string) error {
	path, err := fs.objectPath(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	if fs.db != nil {
		conn, err := fs.db.Connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Close(ctx)
		_, err = conn.Exec(ctx,
			`DELETE FROM storage.objects WHERE bucket_id = $1 AND name = $2`, bucket, name)
		return err
	}
	return nil
}

// Open returns a reader over a stored object.
func (fs *FileStore) Open(bucket, name string) (io.ReadCloser, error) {
	path, err := fs.objectPath(bucket, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

// CreateSignedURL returns a download path with an embedded signed token.
// The path is relative to the storage API mount.
func (fs *FileStore) CreateSignedURL(bucket, name string, ttl time.Duration) (string, error) {
	if _, err := fs.objectPath(bucket, name); err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = SignedURLDefaultTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"url": bucket + "/" + name,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fs.secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/object/sign/%s/%s?token=%s", bucket, name, token), nil
}

// VerifySignedToken checks a download token and returns the object path
// ("bucket/name") it grants access to.
func (fs *FileStore) VerifySignedToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return fs.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid signed token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid signed token")
	}
	url, _ := claims["url"].(string)
	if url == "" {
		return "", errors.New("signed token carries no object")
	}
	return url, nil
}

func (fs *FileStore) objectPath(bucket, name string) (string, error) {
	if bucket == "" || name == "" {
		return "", ErrBadObjectName
	}
	clean := filepath.Clean("/" + name)
	if strings.Contains(name, "..") || clean == "/" {
		return "", ErrBadObjectName
	}
	return filepath.Join(fs.root, bucket, clean), nil
}

func (fs *FileStore) recordObject(ctx context.Context, bucket, name string, size int64) error {
	if fs.db == nil {
		return nil
	}
	conn, err := fs.db.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx,
		`INSERT INTO storage.objects (id, bucket_id, name, size)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (bucket_id, name) DO UPDATE SET size = $4, created_at = now()`,
		uuid.New().String(), bucket, name, size)
	return err
}
