package backend

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markb/galerie/internal/log"
)

// StorageAPI serves the /storage/v1 object endpoints over a FileStore.
type StorageAPI struct {
	files *FileStore
}

func NewStorageAPI(files *FileStore) *StorageAPI {
	return &StorageAPI{files: files}
}

func (s *StorageAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/object/sign/{bucket}/*", s.handleSignedDownload)
	r.Post("/object/sign/{bucket}/*", s.handleCreateSignedURL)
	r.Post("/object/{bucket}/*", s.handleUpload)
	r.Delete("/object/{bucket}/*", s.handleRemove)
	return r
}

func (s *StorageAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	name := chi.URLParam(r, "*")

	if err := s.files.Upload(r.Context(), bucket, name, r.Body); err != nil {
		if errors.Is(err, ErrBadObjectName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error("object upload failed", "error", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"Key": bucket + "/" + name})
}

func (s *StorageAPI) handleRemove(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	name := chi.URLParam(r, "*")

	if err := s.files.Remove(r.Context(), bucket, name); err != nil {
		if errors.Is(err, ErrBadObjectName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error("object removal failed", "error", err)
		http.Error(w, "removal failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StorageAPI) handleCreateSignedURL(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	name := chi.URLParam(r, "*")

	var body struct {
		ExpiresIn int `json:"expiresIn"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	signed, err := s.files.CreateSignedURL(bucket, name, time.Duration(body.ExpiresIn)*time.Second)
	if err != nil {
		if errors.Is(err, ErrBadObjectName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "signing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signedURL": signed})
}

func (s *StorageAPI) handleSignedDownload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	name := chi.URLParam(r, "*")

	object, err := s.files.VerifySignedToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	if object != bucket+"/"+name {
		http.Error(w, "token does not match object", http.StatusForbidden)
		return
	}

	f, err := s.files.Open(bucket, name)
	if errors.Is(err, ErrObjectNotFound) {
		http.Error(w, "object not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	io.Copy(w, f)
}
