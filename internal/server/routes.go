package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/catalog"
	"github.com/markb/galerie/internal/gallery"
	"github.com/markb/galerie/internal/log"
	"github.com/markb/galerie/internal/mailcapture"
	"github.com/markb/galerie/internal/session"
)

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogger)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/works", s.handleListWorks)
		r.Get("/works/{id}", s.handleGetWork)
		r.Get("/settings", s.handleGetSettings)
		r.Get("/stats", s.handleStats)
		r.Post("/contact", s.handleContact)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/password", s.handlePasswordChange)
			r.Post("/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireSession)
				r.Post("/works", s.handleCreateWork)
				r.Put("/works/{id}", s.handleUpdateWork)
				r.Delete("/works/{id}", s.handleDeleteWork)
				r.Put("/settings", s.handleUpdateSettings)
				r.Get("/mailbox", s.handleMailbox)
			})
		})
	})

	if s.backendSrv != nil {
		s.router.Mount("/", s.backendSrv.Routes())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleListWorks serves the gallery, holding the response until the
// minimum loading duration has passed.
func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = catalog.FilterAll
	}

	view := gallery.Render(s.catalog.List(filter))

	gallery.HoldMinimum(r.Context().Done(), start, s.minLoading)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work id")
		return
	}

	work, err := s.catalog.Get(id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "work not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load work")
		return
	}
	writeJSON(w, http.StatusOK, work)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Stats())
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if msg.Name == "" || msg.Message == "" || !strings.Contains(msg.Email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "nom, email et message sont requis")
		return
	}

	to := s.settings.Get().ContactEmail
	if to == "" {
		writeError(w, http.StatusServiceUnavailable, "aucune adresse de contact configurée")
		return
	}

	err := s.relay.Send(to, mailcapture.ContactMessage{
		Name:    msg.Name,
		Email:   msg.Email,
		Subject: msg.Subject,
		Body:    msg.Message,
	})
	if err != nil {
		log.Error("contact relay failed", "error", err)
		writeError(w, http.StatusBadGateway, "l'envoi du message a échoué")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// Admin auth flow

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := s.gate.Login(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse(res))
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password     string `json:"password"`
		Confirmation string `json:"confirmation"`
		AllowWeak    bool   `json:"allowWeak"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := s.gate.CompletePasswordChange(r.Context(), body.Password, body.Confirmation, body.AllowWeak)
	switch {
	case errors.Is(err, session.ErrNotPending):
		writeError(w, http.StatusConflict, "aucun changement de mot de passe en attente")
		return
	case errors.Is(err, admin.ErrPasswordTooShort),
		errors.Is(err, admin.ErrPasswordMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, admin.ErrPasswordWeak):
		// 428: the client must resubmit with the explicit override.
		writeError(w, http.StatusPreconditionRequired, err.Error())
		return
	case err != nil:
		log.Error("password change failed", "error", err)
		writeError(w, http.StatusInternalServerError, "password change failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse(res))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gate.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"state": s.gate.State().String()})
}

// Admin catalog management

type workBody struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

func (s *Server) handleCreateWork(w http.ResponseWriter, r *http.Request) {
	var body workBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	work, err := s.catalog.Create(body.Title, body.Category, body.Description, body.Image)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	s.syncMirror(r.Context())
	writeJSON(w, http.StatusCreated, work)
}

func (s *Server) handleUpdateWork(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work id")
		return
	}

	var body workBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	work, err := s.catalog.Update(id, body.Title, body.Category, body.Description, body.Image)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	s.syncMirror(r.Context())
	writeJSON(w, http.StatusOK, work)
}

func (s *Server) handleDeleteWork(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work id")
		return
	}

	removed, err := s.catalog.Delete(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete work")
		return
	}
	s.syncMirror(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": removed})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values SiteValues
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.settings.Update(values); err != nil {
		if errors.Is(err, ErrBadContactEmail) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleMailbox(w http.ResponseWriter, r *http.Request) {
	messages, err := s.mailbox.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load mailbox")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrTitleRequired), errors.Is(err, catalog.ErrImageRequired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "work not found")
	default:
		writeError(w, http.StatusInternalServerError, "catalog operation failed")
	}
}

func loginResponse(res session.LoginResult) map[string]string {
	out := map[string]string{"state": res.State.String()}
	if res.Token != "" {
		out["token"] = res.Token
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
