package backend

import (
	"context"
	"fmt"

	"github.com/markb/galerie/internal/catalog"
	"github.com/markb/galerie/internal/log"
)

// PhotoMirror copies the catalog into public.photos so the table REST
// API serves the same works the site does. The snapshot store stays the
// source of truth; the mirror is rebuilt wholesale after every change.
type PhotoMirror struct {
	db *EmbeddedDB
}

func NewPhotoMirror(db *EmbeddedDB) *PhotoMirror {
	return &PhotoMirror{db: db}
}

// Sync replaces the photos table with the given works, preserving their
// listing order through the position column.
func (m *PhotoMirror) Sync(ctx context.Context, works []catalog.Work) error {
	conn, err := m.db.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect for photo sync: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM public.photos`); err != nil {
		return err
	}
	for i, w := range works {
		_, err := tx.Exec(ctx,
			`INSERT INTO public.photos (id, title, category, image, description, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			w.ID, w.Title, w.Category, w.Image, w.Description, i)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Debug("photo mirror synced", "count", len(works))
	return nil
}

// List reads the mirrored works back in listing order.
func (m *PhotoMirror) List(ctx context.Context) ([]catalog.Work, error) {
	conn, err := m.db.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx,
		`SELECT id, title, category, image, description
		 FROM public.photos ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var works []catalog.Work
	for rows.Next() {
		var w catalog.Work
		if err := rows.Scan(&w.ID, &w.Title, &w.Category, &w.Image, &w.Description); err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, rows.Err()
}
