package catalog

import (
	"testing"

	"github.com/markb/galerie/internal/store"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c, err := Load(db)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return c
}

func TestLoad_SeedsFreshStore(t *testing.T) {
	c := newTestCatalog(t)

	works := c.List(FilterAll)
	if len(works) != 6 {
		t.Fatalf("fresh catalog has %d works, want 6", len(works))
	}

	for i, w := range works {
		if w.ID != int64(i+1) {
			t.Errorf("work %d has id %d, want %d", i, w.ID, i+1)
		}
	}

	counts := map[string]int{}
	for _, w := range works {
		counts[w.Category]++
	}
	if counts[CategoryPhotography] != 3 {
		t.Errorf("photography count = %d, want 3", counts[CategoryPhotography])
	}
	if counts[CategoryIllustration] != 2 {
		t.Errorf("illustration count = %d, want 2", counts[CategoryIllustration])
	}
	if counts[CategoryDesign] != 1 {
		t.Errorf("design count = %d, want 1", counts[CategoryDesign])
	}
}

func TestLoad_HydratesExistingSnapshot(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	saved := []Work{{ID: 42, Title: "Seul", Category: CategoryDesign, Image: "u"}}
	if err := db.Set(store.KeyWorks, saved); err != nil {
		t.Fatal(err)
	}

	c, err := Load(db)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	works := c.List(FilterAll)
	if len(works) != 1 || works[0].ID != 42 {
		t.Errorf("catalog not hydrated from snapshot: %+v", works)
	}
}

func TestCreate_FrontInsertion(t *testing.T) {
	c := newTestCatalog(t)

	w, err := c.Create("T", CategoryDesign, "D", "u")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	all := c.List(FilterAll)
	if len(all) != 7 {
		t.Fatalf("catalog has %d works after create, want 7", len(all))
	}
	if all[0].ID != w.ID {
		t.Errorf("new work not at front: front id %d, created id %d", all[0].ID, w.ID)
	}

	design := c.List(CategoryDesign)
	if len(design) == 0 || design[0].Title != "T" {
		t.Errorf("new design work not at front of design filter: %+v", design)
	}
}

func TestCreate_Validation(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name    string
		title   string
		image   string
		wantErr error
	}{
		{"missing title", "", "u", ErrTitleRequired},
		{"missing image", "T", "", ErrImageRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Create(tt.title, CategoryDesign, "", tt.image); err != tt.wantErr {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if got := len(c.List(FilterAll)); got != 6 {
				t.Errorf("catalog mutated by rejected create: %d works", got)
			}
		})
	}
}

func TestCreate_UniqueIDs(t *testing.T) {
	c := newTestCatalog(t)

	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		w, err := c.Create("T", CategoryDesign, "", "u")
		if err != nil {
			t.Fatal(err)
		}
		if seen[w.ID] {
			t.Fatalf("duplicate id %d", w.ID)
		}
		seen[w.ID] = true
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	c := newTestCatalog(t)

	photos := c.List(CategoryPhotography)
	for _, w := range photos {
		if w.Category != CategoryPhotography {
			t.Errorf("List(photography) returned %q entry", w.Category)
		}
	}
	if len(photos) != 3 {
		t.Errorf("List(photography) = %d entries, want 3", len(photos))
	}

	// relative order preserved: ids 1, 2, 5 in seed order
	wantIDs := []int64{1, 2, 5}
	for i, w := range photos {
		if w.ID != wantIDs[i] {
			t.Errorf("photography order: position %d id %d, want %d", i, w.ID, wantIDs[i])
		}
	}
}

func TestUpdate_InPlace(t *testing.T) {
	c := newTestCatalog(t)

	updated, err := c.Update(3, "Nature Révisée", CategoryIllustration, "nouvelle", "u2")
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.ID != 3 {
		t.Errorf("Update() changed id: %d", updated.ID)
	}

	all := c.List(FilterAll)
	if all[2].ID != 3 || all[2].Title != "Nature Révisée" {
		t.Errorf("work 3 not updated in place: %+v", all[2])
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	c := newTestCatalog(t)

	if _, err := c.Update(999, "T", CategoryDesign, "", "u"); err != ErrNotFound {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	c := newTestCatalog(t)

	removed, err := c.Delete(2)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !removed {
		t.Error("Delete(2) returned false for existing work")
	}

	after := c.List(FilterAll)

	removed, err = c.Delete(2)
	if err != nil {
		t.Fatalf("second Delete() failed: %v", err)
	}
	if removed {
		t.Error("Delete(2) returned true on second call")
	}

	if got := c.List(FilterAll); len(got) != len(after) {
		t.Errorf("second delete changed catalog: %d vs %d works", len(got), len(after))
	}
}

func TestPersistence_RoundTrip(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	c, err := Load(db)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Create("T", CategoryDesign, "D", "u"); err != nil {
		t.Fatal(err)
	}
	before := c.List(FilterAll)

	// a second Load from the same store must see an equal sequence
	reloaded, err := Load(db)
	if err != nil {
		t.Fatal(err)
	}
	after := reloaded.List(FilterAll)

	if len(before) != len(after) {
		t.Fatalf("reloaded catalog has %d works, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("position %d differs: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestStats(t *testing.T) {
	c := newTestCatalog(t)

	stats := c.Stats()
	if stats.TotalWorks != 6 {
		t.Errorf("TotalWorks = %d, want 6", stats.TotalWorks)
	}
	if stats.Categories != 3 {
		t.Errorf("Categories = %d, want 3", stats.Categories)
	}
	if stats.LastUpdate == "" {
		t.Error("LastUpdate is empty")
	}
}
