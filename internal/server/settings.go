package server

import (
	"errors"
	"strings"
	"sync"

	"github.com/markb/galerie/internal/store"
)

var ErrBadContactEmail = errors.New("adresse email invalide")

// SiteValues is the persisted shape of the public site settings.
type SiteValues struct {
	GalleryName  string `json:"galleryName"`
	ContactEmail string `json:"contactEmail"`
}

// SiteSettings holds the gallery name and contact address, snapshotted
// like the catalog.
type SiteSettings struct {
	mu     sync.Mutex
	values SiteValues
	db     *store.Store
}

// LoadSiteSettings hydrates the settings, seeding the configured
// defaults when no snapshot exists yet.
func LoadSiteSettings(db *store.Store, defaultName, defaultEmail string) (*SiteSettings, error) {
	s := &SiteSettings{db: db}

	found, err := db.Get(store.KeySiteSettings, &s.values)
	if err != nil {
		return nil, err
	}
	if !found {
		s.values = SiteValues{GalleryName: defaultName, ContactEmail: defaultEmail}
		if err := db.Set(store.KeySiteSettings, s.values); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SiteSettings) Get() SiteValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Update replaces both values and persists them. A non-empty contact
// address must look like an email.
func (s *SiteSettings) Update(values SiteValues) error {
	if values.ContactEmail != "" && !strings.Contains(values.ContactEmail, "@") {
		return ErrBadContactEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.values
	s.values = values
	if err := s.db.Set(store.KeySiteSettings, s.values); err != nil {
		s.values = prev
		return err
	}
	return nil
}
