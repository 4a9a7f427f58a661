package model

import "time"

// UserProfile is a member of a single list. The first member created is admin.
type UserProfile struct {
	ListID    string    `json:"list_id"`
	Name      string    `json:"name"`
	PINHash   string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
