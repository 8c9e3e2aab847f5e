package backend

import (
	"context"
	"fmt"
)

// schemaStatements is applied on every start. All statements are
// idempotent.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS auth`,
	`CREATE SCHEMA IF NOT EXISTS storage`,

	`CREATE TABLE IF NOT EXISTS auth.users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		encrypted_password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_sign_in_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS storage.objects (
		id UUID PRIMARY KEY,
		bucket_id TEXT NOT NULL,
		name TEXT NOT NULL,
		size BIGINT NOT NULL DEFAULT 0,
		content_type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (bucket_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS public.photos (
		id BIGINT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		image TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// InitSchema creates the auth, storage and public tables the emulation
// serves.
func (db *EmbeddedDB) InitSchema(ctx context.Context) error {
	conn, err := db.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect for schema init: %w", err)
	}
	defer conn.Close(ctx)

	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
