// Package grocery derives the per-name aggregated view of a list's items.
package grocery

import (
	"sort"
	"sync"

	"github.com/dukerupert/groceryhub/internal/model"
)

// AggregatedItem merges every item of a list that shares a name.
type AggregatedItem struct {
	Name          string  `json:"name"`
	TotalQuantity float64 `json:"total_quantity"`
	Unit          string  `json:"unit"`
	Purchased     bool    `json:"purchased"`
	Category      string  `json:"category"`
}

// CategoryGroup is one section of the categorized view.
type CategoryGroup struct {
	Category string           `json:"category"`
	Items    []AggregatedItem `json:"items"`
}

// View is everything a client renders for a list snapshot.
type View struct {
	Items      []AggregatedItem `json:"items"`
	Categories []CategoryGroup  `json:"categories"`
	Progress   float64          `json:"progress"`
}

// Aggregate groups items by exact name in input order. The first item of a
// group fixes its unit and category; quantities add up, and the group is
// purchased only when every member is.
func Aggregate(items []model.GroceryItem) []AggregatedItem {
	index := make(map[string]int, len(items))
	out := make([]AggregatedItem, 0, len(items))
	for _, item := range items {
		i, ok := index[item.Name]
		if !ok {
			i = len(out)
			index[item.Name] = i
			out = append(out, AggregatedItem{
				Name:      item.Name,
				Unit:      item.Unit,
				Category:  item.Category,
				Purchased: true,
			})
		}
		out[i].TotalQuantity += item.Quantity
		if !item.Purchased {
			out[i].Purchased = false
		}
	}
	return out
}

// Categorize groups aggregated items by category, sorted by category name.
// An empty category is reported as CategoryOther. Items keep their order
// within a group.
func Categorize(aggregated []AggregatedItem) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, item := range aggregated {
		cat := item.Category
		if cat == "" {
			cat = CategoryOther
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Category < groups[b].Category
	})
	if groups == nil {
		groups = []CategoryGroup{}
	}
	return groups
}

// Progress returns the percentage of aggregated items that are purchased,
// or 0 when there are none.
func Progress(aggregated []AggregatedItem) float64 {
	if len(aggregated) == 0 {
		return 0
	}
	purchased := 0
	for _, item := range aggregated {
		if item.Purchased {
			purchased++
		}
	}
	return 100 * float64(purchased) / float64(len(aggregated))
}

func BuildView(items []model.GroceryItem) View {
	aggregated := Aggregate(items)
	return View{
		Items:      aggregated,
		Categories: Categorize(aggregated),
		Progress:   Progress(aggregated),
	}
}

// Memo caches the view of the last snapshot it was given and recomputes only
// when the snapshot content changes. It is safe for concurrent use.
type Memo struct {
	mu    sync.Mutex
	last  []model.GroceryItem
	view  View
	valid bool
}

func (m *Memo) View(items []model.GroceryItem) View {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && sameItems(m.last, items) {
		return m.view
	}
	m.last = append(m.last[:0], items...)
	m.view = BuildView(items)
	m.valid = true
	return m.view
}

func sameItems(a, b []model.GroceryItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.ListID != y.ListID || x.Name != y.Name ||
			x.Quantity != y.Quantity || x.Unit != y.Unit || x.Category != y.Category ||
			x.Purchased != y.Purchased || x.AddedBy != y.AddedBy || !x.DateAdded.Equal(y.DateAdded) {
			return false
		}
	}
	return true
}
