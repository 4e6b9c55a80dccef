// Package sqlite implements the backend contracts against a local
// SQLite database. The change feed is an in-process subscriber hub,
// which makes live updates work across views within one process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/logger"
	"github.com/nikbrunner/marq/internal/model"
)

const currentSchemaVersion = 1

// Backend is a SQLite-backed implementation of backend.Backend.
type Backend struct {
	db   *sql.DB
	path string
	log  logger.Logger

	mu      sync.Mutex
	current *model.User

	hub *hub
}

var _ backend.Backend = (*Backend)(nil)

// New opens (or creates) the database at path.
func New(path string, log logger.Logger) (*Backend, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	b := &Backend{db: db, path: path, log: log, hub: newHub()}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Path returns the database file path.
func (b *Backend) Path() string {
	return b.path
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// migrate runs database migrations.
func (b *Backend) migrate() error {
	var version int
	err := b.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := b.migrateV1(); err != nil {
			return err
		}
	}
	return nil
}

// migrateV1 creates the initial schema. Creation times are stored as
// unix nanoseconds so ORDER BY matches chronological order exactly.
func (b *Backend) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY NOT NULL,
			email TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY NOT NULL,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created
			ON bookmarks(user_id, created_at DESC);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := b.db.Exec(schema)
	return err
}

// SignIn finds or creates the account for email and makes it current.
func (b *Backend) SignIn(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := b.db.QueryRowContext(ctx,
		"SELECT id, email FROM users WHERE email = ?", email,
	).Scan(&user.ID, &user.Email)

	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		user = model.User{ID: model.GenerateUUID(), Email: email}
		if _, err := b.db.ExecContext(ctx,
			"INSERT INTO users (id, email) VALUES (?, ?)", user.ID, user.Email,
		); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		b.log.Info("created account", logger.String("user", user.ID))
	default:
		return nil, fmt.Errorf("look up account: %w", err)
	}

	b.mu.Lock()
	b.current = &user
	b.mu.Unlock()

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
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, title, url, created_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []model.Bookmark{}
	for rows.Next() {
		var bm model.Bookmark
		var createdAt int64
		if err := rows.Scan(&bm.ID, &bm.Title, &bm.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bm.CreatedAt = time.Unix(0, createdAt).UTC()
		bookmarks = append(bookmarks, bm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}

// InsertBookmark persists a draft for userID and notifies subscribers.
func (b *Backend) InsertBookmark(ctx context.Context, draft model.Draft, userID string) (model.Bookmark, error) {
	bm := model.Bookmark{
		ID:        model.GenerateUUID(),
		Title:     draft.Title,
		URL:       draft.URL,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := b.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, title, url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, bm.ID, userID, bm.Title, bm.URL, bm.CreatedAt.UnixNano()); err != nil {
		return model.Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}

	b.hub.notify(userID, backend.Event{Kind: backend.EventInsert})
	return bm, nil
}

// DeleteBookmark removes a bookmark from the user's partition.
func (b *Backend) DeleteBookmark(ctx context.Context, id, userID string) error {
	res, err := b.db.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if n == 0 {
		return backend.ErrNotFound
	}

	b.hub.notify(userID, backend.Event{Kind: backend.EventDelete})
	return nil
}

// Subscribe registers onEvent for the user's partition.
func (b *Backend) Subscribe(ctx context.Context, userID string, onEvent backend.EventFunc) (backend.Subscription, error) {
	return b.hub.subscribe(userID, onEvent), nil
}

// hub fans change events out to in-process subscribers.
type hub struct {
	mu     sync.Mutex
	subs   map[int]*hubSub
	nextID int
}

type hubSub struct {
	userID  string
	onEvent backend.EventFunc
}

func newHub() *hub {
	return &hub{subs: map[int]*hubSub{}}
}

func (h *hub) subscribe(userID string, onEvent backend.EventFunc) backend.Subscription {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = &hubSub{userID: userID, onEvent: onEvent}
	h.mu.Unlock()
	return &subscription{hub: h, id: id}
}

func (h *hub) notify(userID string, ev backend.Event) {
	h.mu.Lock()
	var fns []backend.EventFunc
	for _, sub := range h.subs {
		if sub.userID == userID {
			fns = append(fns, sub.onEvent)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		go fn(ev)
	}
}

type subscription struct {
	hub  *hub
	id   int
	once sync.Once
}

// Close unregisters the subscriber. Safe to call repeatedly.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
	return nil
}
