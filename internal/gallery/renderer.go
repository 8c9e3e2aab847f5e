// Package gallery projects catalog works into the shape the public site
// renders: display labels for categories, a placeholder message when a
// filter matches nothing, and a minimum busy duration so the loading
// state stays visible even when listing is instant.
package gallery

import (
	"time"

	"github.com/markb/galerie/internal/catalog"
)

// EmptyMessage is shown when a filter matches no works.
const EmptyMessage = "Aucune œuvre trouvée."

// categoryLabels maps raw category values to their display labels.
// Unknown categories pass through unchanged.
var categoryLabels = map[string]string{
	catalog.CategoryPhotography:  "Photographie",
	catalog.CategoryIllustration: "Illustration",
	catalog.CategoryDesign:       "Design",
}

// Item is one rendered gallery entry.
type Item struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	CategoryLabel string `json:"categoryLabel"`
	Image         string `json:"image"`
	Description   string `json:"description,omitempty"`
}

// View is a rendered gallery page: the items for the active filter, or a
// placeholder message when there are none.
type View struct {
	Items   []Item `json:"items"`
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
}

// CategoryLabel returns the display label for a category. Values with no
// known label are returned as-is.
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return category
}

// Render projects a filtered listing into a view. The input order is
// preserved.
func Render(works []catalog.Work) View {
	if len(works) == 0 {
		return View{Items: []Item{}, Empty: true, Message: EmptyMessage}
	}

	items := make([]Item, 0, len(works))
	for _, w := range works {
		items = append(items, Item{
			ID:            w.ID,
			Title:         w.Title,
			Category:      w.Category,
			CategoryLabel: CategoryLabel(w.Category),
			Image:         w.Image,
			Description:   w.Description,
		})
	}
	return View{Items: items}
}

// HoldMinimum blocks until at least min has elapsed since start, or the
// context is done. Listing from the snapshot store is effectively
// instant; without the hold the loading state would flicker.
func HoldMinimum(done <-chan struct{}, start time.Time, min time.Duration) {
	remaining := min - time.Since(start)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-done:
	}
}
