// Package catalog owns the ordered collection of gallery works.
//
// The catalog is held in memory by the running server and written back to
// the snapshot store in full after every mutation. Order is insertion
// order with the newest work at the front.
package catalog

import (
	"errors"
	"sync"
	"time"

	"github.com/markb/galerie/internal/store"
)

// Work categories.
const (
	CategoryPhotography  = "photography"
	CategoryIllustration = "illustration"
	CategoryDesign       = "design"
)

// FilterAll selects every category in List.
const FilterAll = "all"

var (
	ErrTitleRequired = errors.New("title is required")
	ErrImageRequired = errors.New("image URL is required")
	ErrNotFound      = errors.New("work not found")
)

// Work is a single gallery entry.
type Work struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	TotalWorks int    `json:"totalWorks"`
	Categories int    `json:"totalCategories"`
	LastUpdate string `json:"lastUpdate"`
}

// Catalog is the ordered collection of works, backed by the snapshot store.
type Catalog struct {
	mu     sync.Mutex
	works  []Work
	db     *store.Store
	lastID int64
}

// Load hydrates the catalog from the snapshot store, seeding the sample
// works when no snapshot exists yet.
func Load(db *store.Store) (*Catalog, error) {
	c := &Catalog{db: db}

	found, err := db.Get(store.KeyWorks, &c.works)
	if err != nil {
		return nil, err
	}
	if !found {
		c.works = sampleWorks()
		if err := c.persist(); err != nil {
			return nil, err
		}
	}

	for _, w := range c.works {
		if w.ID > c.lastID {
			c.lastID = w.ID
		}
	}
	return c, nil
}

// List returns the works matching filter in catalog order.
// Filter is FilterAll or a category value. No mutation.
func (c *Catalog) List(filter string) []Work {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Work, 0, len(c.works))
	for _, w := range c.works {
		if filter == FilterAll || filter == "" || w.Category == filter {
			out = append(out, w)
		}
	}
	return out
}

// Get returns the work with the given id.
func (c *Catalog) Get(id int64) (Work, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, w := range c.works {
		if w.ID == id {
			return w, nil
		}
	}
	return Work{}, ErrNotFound
}

// Create validates and inserts a new work at the front of the catalog,
// then persists the full snapshot.
func (c *Catalog) Create(title, category, description, image string) (Work, error) {
	if title == "" {
		return Work{}, ErrTitleRequired
	}
	if image == "" {
		return Work{}, ErrImageRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := Work{
		ID:          c.nextID(),
		Title:       title,
		Category:    category,
		Image:       image,
		Description: description,
	}
	c.works = append([]Work{w}, c.works...)

	if err := c.persist(); err != nil {
		// not applied: roll the in-memory insert back
		c.works = c.works[1:]
		return Work{}, err
	}
	return w, nil
}

// Update replaces the fields of the work with the given id, keeping its id
// and position. Empty title or image is rejected the same way Create
// rejects it.
func (c *Catalog) Update(id int64, title, category, description, image string) (Work, error) {
	if title == "" {
		return Work{}, ErrTitleRequired
	}
	if image == "" {
		return Work{}, ErrImageRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.works {
		if w.ID != id {
			continue
		}
		prev := c.works[i]
		c.works[i] = Work{
			ID:          id,
			Title:       title,
			Category:    category,
			Image:       image,
			Description: description,
		}
		if err := c.persist(); err != nil {
			c.works[i] = prev
			return Work{}, err
		}
		return c.works[i], nil
	}
	return Work{}, ErrNotFound
}

// Delete removes the work with the given id and persists the snapshot.
// Returns false without error when the id is absent; deleting twice is the
// same as deleting once.
func (c *Catalog) Delete(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.works {
		if w.ID != id {
			continue
		}
		prev := c.works
		c.works = append(append([]Work{}, c.works[:i]...), c.works[i+1:]...)
		if err := c.persist(); err != nil {
			c.works = prev
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Stats returns the dashboard counters.
func (c *Catalog) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	categories := make(map[string]struct{})
	for _, w := range c.works {
		categories[w.Category] = struct{}{}
	}
	return Stats{
		TotalWorks: len(c.works),
		Categories: len(categories),
		LastUpdate: time.Now().Format("02/01/2006"),
	}
}

// nextID generates a creation-timestamp id, bumped past the last issued
// id so that two creations within the same millisecond stay unique.
func (c *Catalog) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func (c *Catalog) persist() error {
	return c.db.Set(store.KeyWorks, c.works)
}
