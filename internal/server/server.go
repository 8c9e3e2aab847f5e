// Package server wires the gallery together: the snapshot store, the
// catalog, the admin gate and the HTTP API, plus the mail path and, in
// remote auth mode, the embedded backend emulation.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/backend"
	"github.com/markb/galerie/internal/catalog"
	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/keys"
	"github.com/markb/galerie/internal/log"
	"github.com/markb/galerie/internal/mailcapture"
	"github.com/markb/galerie/internal/session"
	"github.com/markb/galerie/internal/store"
)

type Server struct {
	cfg    *config.Config
	router *chi.Mux

	db       *store.Store
	catalog  *catalog.Catalog
	settings *SiteSettings
	creds    *admin.Credentials
	gate     *session.Gate
	tokens   *session.TokenManager
	keys     *keys.Manager

	mailbox    *mailcapture.Mailbox
	relay      *mailcapture.Relay
	captureSrv *mailcapture.Server
	backendSrv *backend.Backend
	minLoading time.Duration
	httpServer *http.Server
}

func New(cfg *config.Config) *Server {
	return &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		minLoading: time.Duration(cfg.MinLoadingMs) * time.Millisecond,
	}
}

// Start brings the whole stack up and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	log.Info("starting galerie server...")

	if err := s.setup(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.corsHandler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("galerie listening", "addr", addr)
		log.Info("APIs available:")
		log.Info("  Gallery: http://localhost:8080/api/works")
		log.Info("  Admin:   http://localhost:8080/api/admin/*")
		log.Info("  Health:  http://localhost:8080/health")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "error", err)
		}
	}()

	return s.waitForShutdown(ctx)
}

// setup opens the snapshot store and assembles every component without
// listening yet. Split out so tests can drive the router directly.
func (s *Server) setup(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := store.Open(filepath.Join(s.cfg.DataDir, "galerie.db"))
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	s.db = db

	s.creds, err = admin.LoadCredentials(db)
	if err != nil {
		return fmt.Errorf("failed to load admin credentials: %w", err)
	}

	s.catalog, err = catalog.Load(db)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	s.settings, err = LoadSiteSettings(db, s.cfg.GalleryName, s.cfg.ContactEmail)
	if err != nil {
		return fmt.Errorf("failed to load site settings: %w", err)
	}

	jwtSecret := s.cfg.JWTSecret
	s.keys, err = keys.NewManager(s.cfg.DataDir, jwtSecret)
	if err != nil {
		return fmt.Errorf("failed to set up keys: %w", err)
	}
	if jwtSecret == "" {
		// Session tokens need a symmetric secret even in ES256 mode;
		// derive a stable one from the persisted service key.
		jwtSecret = s.keys.GetServiceKey()
	}
	s.tokens = session.NewTokenManager([]byte(jwtSecret))

	s.mailbox = mailcapture.NewMailbox(db)
	s.relay = mailcapture.NewRelay(*s.cfg.Mail)
	if s.cfg.Mail.CaptureMode {
		s.captureSrv = mailcapture.NewServer(s.cfg.Mail.SMTPHost, s.cfg.Mail.CapturePort, s.mailbox)
		if err := s.captureSrv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start mail capture: %w", err)
		}
	}

	var strategy session.Strategy
	switch s.cfg.AuthMode {
	case config.AuthModeRemote:
		s.backendSrv, err = backend.New(s.cfg, s.keys, []byte(jwtSecret))
		if err != nil {
			return fmt.Errorf("failed to assemble backend: %w", err)
		}
		if err := s.backendSrv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start backend: %w", err)
		}
		authURL := fmt.Sprintf("http://localhost:%d/auth/v1", s.cfg.Port)
		client := backend.NewClient(authURL, s.keys.GetAnonKey())
		strategy = session.NewRemoteStrategy(client, s.creds)
		s.syncMirror(ctx)
	default:
		strategy = session.NewLocalStrategy(s.creds)
	}
	s.gate = session.NewGate(strategy, s.tokens)

	s.setupRoutes()
	return nil
}

func (s *Server) corsHandler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "apikey"},
		AllowCredentials: false,
	}).Handler(s.router)
}

// syncMirror copies the catalog into the backend's photos table.
// Failures are logged; the snapshot store stays authoritative.
func (s *Server) syncMirror(ctx context.Context) {
	if s.backendSrv == nil {
		return
	}
	works := s.catalog.List(catalog.FilterAll)
	if err := s.backendSrv.Mirror().Sync(ctx, works); err != nil {
		log.Warn("photo mirror sync failed", "error", err)
	}
}

func (s *Server) waitForShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var cause error
	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down...", "signal", sig)
	case <-ctx.Done():
		cause = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpServer != nil {
		s.httpServer.Shutdown(shutdownCtx)
	}
	s.shutdownComponents()

	log.Info("galerie stopped")
	return cause
}

func (s *Server) shutdownComponents() {
	if s.backendSrv != nil {
		s.backendSrv.Stop()
	}
	if s.captureSrv != nil {
		s.captureSrv.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
}
