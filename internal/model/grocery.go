package model

import "time"

// GroceryList is a PIN-protected shared list identified by a slug of its name.
type GroceryList struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	PINHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// GroceryItem is one entry on a list. Several items may share a Name; their
// quantities add up in the aggregated view.
type GroceryItem struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	Purchased bool      `json:"purchased"`
	DateAdded time.Time `json:"date_added"`
	AddedBy   string    `json:"added_by,omitempty"`
}

// Valid reports whether the item has the fields every consumer relies on.
func (i GroceryItem) Valid() bool {
	return i.ID != "" && i.Name != ""
}
