// Package memory implements the backend contracts entirely in
// process. It backs the demo mode and the client tests; FailListWith
// lets tests exercise refresh-failure semantics.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/model"
)

// Backend is an in-memory implementation of backend.Backend.
type Backend struct {
	mu          sync.Mutex
	usersByID   map[string]model.User
	idByEmail   map[string]string
	bookmarks   map[string][]model.Bookmark // by owner userID
	current     *model.User
	subs        map[int]*subscriber
	nextSubID   int
	lastCreated time.Time
	listErr     error
}

type subscriber struct {
	userID  string
	onEvent backend.EventFunc
}

var _ backend.Backend = (*Backend)(nil)

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{
		usersByID: map[string]model.User{},
		idByEmail: map[string]string{},
		bookmarks: map[string][]model.Bookmark{},
		subs:      map[int]*subscriber{},
	}
}

// FailListWith makes subsequent ListBookmarks calls return err.
// Pass nil to restore normal behavior.
func (b *Backend) FailListWith(err error) {
	b.mu.Lock()
	b.listErr = err
	b.mu.Unlock()
}

// SignIn finds or creates the account for email and makes it current.
func (b *Backend) SignIn(ctx context.Context, email string) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.idByEmail[email]
	if !ok {
		user := model.User{ID: model.GenerateUUID(), Email: email}
		b.usersByID[user.ID] = user
		b.idByEmail[email] = user.ID
		id = user.ID
	}
	user := b.usersByID[id]
	b.current = &user
	out := user
	return &out, nil
}

// CurrentUser returns the signed-in user, or nil if none.
func (b *Backend) CurrentUser(ctx context.Context) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil, nil
	}
	user := *b.current
	return &user, nil
}

// SignOut drops the current session.
func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
	return nil
}

// ListBookmarks returns the user's bookmarks, newest first.
func (b *Backend) ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listErr != nil {
		return nil, b.listErr
	}

	out := append([]model.Bookmark(nil), b.bookmarks[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// InsertBookmark persists a draft and notifies the user's subscribers.
func (b *Backend) InsertBookmark(ctx context.Context, draft model.Draft, userID string) (model.Bookmark, error) {
	b.mu.Lock()
	bm := model.Bookmark{
		ID:        model.GenerateUUID(),
		Title:     draft.Title,
		URL:       draft.URL,
		CreatedAt: b.nextTimestamp(),
	}
	b.bookmarks[userID] = append(b.bookmarks[userID], bm)
	b.mu.Unlock()

	b.notify(userID, backend.Event{Kind: backend.EventInsert})
	return bm, nil
}

// nextTimestamp returns a strictly increasing creation time so that
// list order is stable even for inserts within the same clock tick.
// Caller must hold b.mu.
func (b *Backend) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(b.lastCreated) {
		now = b.lastCreated.Add(time.Nanosecond)
	}
	b.lastCreated = now
	return now
}

// DeleteBookmark removes a bookmark from the user's partition.
func (b *Backend) DeleteBookmark(ctx context.Context, id, userID string) error {
	b.mu.Lock()
	list := b.bookmarks[userID]
	found := false
	for i, bm := range list {
		if bm.ID == id {
			b.bookmarks[userID] = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	b.mu.Unlock()

	if !found {
		return backend.ErrNotFound
	}
	b.notify(userID, backend.Event{Kind: backend.EventDelete})
	return nil
}

// Subscribe registers onEvent for the user's partition.
func (b *Backend) Subscribe(ctx context.Context, userID string, onEvent backend.EventFunc) (backend.Subscription, error) {
	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.subs[id] = &subscriber{userID: userID, onEvent: onEvent}
	b.mu.Unlock()

	return &subscription{backend: b, id: id}, nil
}

// notify dispatches an event to the user's subscribers asynchronously,
// mimicking a push channel arriving off the caller's goroutine.
func (b *Backend) notify(userID string, ev backend.Event) {
	b.mu.Lock()
	var fns []backend.EventFunc
	for _, sub := range b.subs {
		if sub.userID == userID {
			fns = append(fns, sub.onEvent)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		go fn(ev)
	}
}

type subscription struct {
	backend *Backend
	id      int
	once    sync.Once
}

// Close unregisters the subscriber. Safe to call repeatedly.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.backend.mu.Lock()
		delete(s.backend.subs, s.id)
		s.backend.mu.Unlock()
	})
	return nil
}
