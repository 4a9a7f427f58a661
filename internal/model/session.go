package model

import "time"

// Session tracks a browser's access to one list. Username is empty until a
// user has been selected.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	ListID    string    `json:"list_id"`
	Username  string    `json:"username,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
