// Package client maintains the local snapshot of the signed-in user's
// bookmarks and keeps it fresh via the backend's change feed.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/logger"
	"github.com/nikbrunner/marq/internal/model"
)

// Store holds the session-scoped bookmark snapshot. The snapshot is a
// mirror of the backend's current row set for the user: every refresh
// replaces it wholesale, never patches individual entries. Add and
// Remove are non-optimistic — the snapshot only changes through a
// refresh, either explicit or triggered by a change-feed event.
type Store struct {
	backend backend.Backend
	log     logger.Logger

	mu       sync.RWMutex
	user     model.User
	snapshot []model.Bookmark
	sub      backend.Subscription

	// changed coalesces change-feed arrivals for the UI; buffered so a
	// burst of events collapses into one wake-up.
	changed chan struct{}
}

// New creates a Store over the given backend.
func New(b backend.Backend, log logger.Logger) *Store {
	return &Store{
		backend: b,
		log:     log,
		changed: make(chan struct{}, 1),
	}
}

// Initialize establishes session context: it requires a signed-in
// user, performs the initial full fetch, and opens exactly one
// change-feed subscription for the user's partition. Returns
// backend.ErrNoSession if nobody is signed in.
func (s *Store) Initialize(ctx context.Context) error {
	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if user == nil {
		return backend.ErrNoSession
	}

	s.mu.Lock()
	s.user = *user
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		return err
	}

	sub, err := s.backend.Subscribe(ctx, user.ID, s.onFeedEvent)
	if err != nil {
		return fmt.Errorf("open change feed: %w", err)
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

// onFeedEvent runs on the backend's feed goroutine. Every
// notification, regardless of kind, triggers exactly one refresh; the
// payload is never applied incrementally.
func (s *Store) onFeedEvent(ev backend.Event) {
	if err := s.Refresh(context.Background()); err != nil {
		// Previous snapshot stays in place; the next event or a manual
		// refresh will catch up.
		s.log.Warn("feed-triggered refresh failed", logger.Error(err))
		return
	}
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Changes signals that the snapshot was replaced after a change-feed
// event. Consumers re-read Snapshot on every receive.
func (s *Store) Changes() <-chan struct{} {
	return s.changed
}

// Refresh fetches the full current row set and replaces the snapshot.
// On error the previous snapshot is left untouched.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	userID := s.user.ID
	s.mu.RUnlock()

	list, err := s.backend.ListBookmarks(ctx, userID)
	if err != nil {
		return fmt.Errorf("refresh bookmarks: %w", err)
	}

	s.mu.Lock()
	s.snapshot = list
	s.mu.Unlock()
	return nil
}

// Add submits a validated draft. The local snapshot is not touched;
// the new row arrives via the next refresh or change-feed event.
func (s *Store) Add(ctx context.Context, draft model.Draft) error {
	s.mu.RLock()
	userID := s.user.ID
	s.mu.RUnlock()

	if _, err := s.backend.InsertBookmark(ctx, draft, userID); err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

// Remove submits a delete request by id. Non-optimistic like Add.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.RLock()
	userID := s.user.ID
	s.mu.RUnlock()

	if err := s.backend.DeleteBookmark(ctx, id, userID); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current bookmark list, newest first.
func (s *Store) Snapshot() []model.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Bookmark(nil), s.snapshot...)
}

// User returns the session user. Zero value before Initialize.
func (s *Store) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Teardown closes the change-feed subscription. Idempotent and safe
// to call even if Initialize never ran or failed partway.
func (s *Store) Teardown() error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Close()
}
