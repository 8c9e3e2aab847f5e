// Package backend runs a small emulation of the hosted service the
// remote auth mode targets. It owns an embedded PostgreSQL instance and
// exposes the same surface a real project would: an auth API under
// /auth/v1, a table REST API under /rest/v1 and file storage under
// /storage/v1.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5"

	"github.com/markb/galerie/internal/config"
)

const pgVersion = "16.9.0"

// EmbeddedDB wraps the embedded PostgreSQL instance backing the
// emulation.
type EmbeddedDB struct {
	postgres   *embeddedpostgres.EmbeddedPostgres
	cfg        config.BackendConfig
	dataDir    string
	connString string
	mu         sync.RWMutex
	started    bool
}

func NewEmbeddedDB(cfg config.BackendConfig, dataDir string) *EmbeddedDB {
	return &EmbeddedDB{
		cfg:     cfg,
		dataDir: dataDir,
		connString: fmt.Sprintf("postgres://%s:%s@localhost:%d/%s",
			cfg.PGUsername, cfg.PGPassword, cfg.PGPort, cfg.PGDatabase),
	}
}

func (db *EmbeddedDB) Start(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.started {
		return nil
	}

	pgConfig := embeddedpostgres.DefaultConfig().
		Port(uint32(db.cfg.PGPort)).
		Username(db.cfg.PGUsername).
		Password(db.cfg.PGPassword).
		Database(db.cfg.PGDatabase).
		Version(embeddedpostgres.PostgresVersion(pgVersion))

	if db.dataDir != "" {
		if err := os.MkdirAll(db.dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		pgConfig = pgConfig.DataPath(filepath.Join(db.dataDir, "pg"))
	}

	db.postgres = embeddedpostgres.NewDatabase(pgConfig)

	done := make(chan error, 1)
	go func() {
		done <- db.postgres.Start()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to start postgres: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("postgres start timed out: %w", ctx.Err())
	}

	if err := db.waitReady(ctx); err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}

	db.started = true
	return nil
}

func (db *EmbeddedDB) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.started {
		return
	}
	if db.postgres != nil {
		db.postgres.Stop()
	}
	db.started = false
}

func (db *EmbeddedDB) ConnectionString() string {
	return db.connString
}

func (db *EmbeddedDB) Connect(ctx context.Context) (*pgx.Conn, error) {
	return pgx.Connect(ctx, db.connString)
}

func (db *EmbeddedDB) waitReady(ctx context.Context) error {
	const maxRetries = 60
	const retryDelay = 500 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		conn, err := db.Connect(ctx)
		if err == nil {
			conn.Close(ctx)
			return nil
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("postgres did not become ready")
}
