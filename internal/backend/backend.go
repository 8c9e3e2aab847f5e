package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/keys"
	"github.com/markb/galerie/internal/log"
)

// Backend bundles the emulation: embedded PostgreSQL, the auth API, the
// photo mirror, file storage and the table REST server.
type Backend struct {
	db     *EmbeddedDB
	auth   *AuthAPI
	users  UserStore
	mirror *PhotoMirror
	files  *FileStore
	rest   *RESTServer
	keys   *keys.Manager
}

// New assembles a backend from configuration. Nothing is started yet;
// call Start before mounting Routes.
func New(cfg *config.Config, km *keys.Manager, jwtSecret []byte) (*Backend, error) {
	db := NewEmbeddedDB(*cfg.Backend, cfg.DataDir)

	files, err := NewFileStore(cfg.DataDir, jwtSecret, db)
	if err != nil {
		return nil, fmt.Errorf("failed to set up file storage: %w", err)
	}

	users := NewPGUserStore(db)
	return &Backend{
		db:     db,
		auth:   NewAuthAPI(users, jwtSecret),
		users:  users,
		mirror: NewPhotoMirror(db),
		files:  files,
		rest:   NewRESTServer(db.ConnectionString(), cfg.Backend.RESTPort),
		keys:   km,
	}, nil
}

// Start brings up the database, applies the schema and starts the table
// REST server.
func (b *Backend) Start(ctx context.Context) error {
	log.Info("starting embedded backend")

	if err := b.db.Start(ctx); err != nil {
		return err
	}
	if err := b.db.InitSchema(ctx); err != nil {
		b.db.Stop()
		return err
	}
	if err := b.rest.Start(ctx); err != nil {
		b.db.Stop()
		return err
	}

	log.Info("embedded backend ready", "pg", b.db.ConnectionString())
	return nil
}

func (b *Backend) Stop() {
	b.rest.Stop()
	b.db.Stop()
	log.Info("embedded backend stopped")
}

// Routes mounts the emulated service surface:
//
//	/auth/v1     sign-in, sign-up, user resource, JWKS
//	/rest/v1     table REST over the mirrored photos
//	/storage/v1  object upload, removal and signed downloads
func (b *Backend) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth/v1", func(r chi.Router) {
		r.Get("/.well-known/jwks.json", b.handleJWKS)
		r.Mount("/", b.auth.Routes())
	})
	r.Mount("/storage/v1", NewStorageAPI(b.files).Routes())
	r.Handle("/rest/v1/*", http.StripPrefix("/rest/v1", b.restHandler()))

	return r
}

func (b *Backend) handleJWKS(w http.ResponseWriter, r *http.Request) {
	jwks, err := b.keys.GetJWKS()
	if err != nil {
		http.Error(w, "JWKS not available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jwks)
}

func (b *Backend) restHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.rest.Handler().ServeHTTP(w, r)
	})
}

// Mirror exposes the photo mirror for catalog change hooks.
func (b *Backend) Mirror() *PhotoMirror {
	return b.mirror
}

// Files exposes object storage.
func (b *Backend) Files() *FileStore {
	return b.files
}

// Users exposes the account store.
func (b *Backend) Users() UserStore {
	return b.users
}
