// Package backend defines the capability contracts the bookmark
// client needs from a backend: session, queries, and a change feed.
// Authentication, row-level authorization, and durable storage live
// behind these interfaces; the client never sees another user's rows.
package backend

import (
	"context"

	"github.com/nikbrunner/marq/internal/model"
)

// EventKind classifies a change-feed notification. The feed makes no
// payload guarantee beyond "something changed for this user" — the
// kind is advisory and callers refetch regardless.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventInsert
	EventDelete
)

// Event is a single change-feed notification.
type Event struct {
	Kind EventKind
}

// EventFunc handles a change-feed notification. It may be called from
// a backend-owned goroutine.
type EventFunc func(Event)

// Subscription is an open change-feed subscription. Close is
// idempotent.
type Subscription interface {
	Close() error
}

// Session exposes the current account state.
type Session interface {
	// CurrentUser returns the signed-in user, or nil if there is no
	// active session.
	CurrentUser(ctx context.Context) (*model.User, error)
	// SignIn establishes a session for the given email, creating the
	// account if it does not exist yet.
	SignIn(ctx context.Context, email string) (*model.User, error)
	SignOut(ctx context.Context) error
}

// Queries exposes the bookmark rows of a single user.
type Queries interface {
	// ListBookmarks returns all bookmarks owned by userID, newest
	// first by creation time.
	ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error)
	// InsertBookmark persists a draft for userID. The backend assigns
	// ID and CreatedAt.
	InsertBookmark(ctx context.Context, draft model.Draft, userID string) (model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id, userID string) error
}

// ChangeFeed delivers push notifications for a user's row partition.
type ChangeFeed interface {
	// Subscribe opens a subscription for userID. onEvent is invoked
	// for every change until the subscription is closed.
	Subscribe(ctx context.Context, userID string, onEvent EventFunc) (Subscription, error)
}

// Backend bundles the three capabilities a session needs.
type Backend interface {
	Session
	Queries
	ChangeFeed
}
