package model

import "time"

// Bookmark represents a saved URL owned by a single user.
// ID and CreatedAt are assigned by the backend at insert time.
type Bookmark struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft is a normalized, not-yet-persisted candidate bookmark.
type Draft struct {
	Title string
	URL   string
}

// User identifies the signed-in account. Bookmarks are partitioned
// per user by the backend; a user never sees another user's rows.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
