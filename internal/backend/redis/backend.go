// Package redis implements the backend capability contracts against a
// Redis server. Bookmarks live as JSON values indexed by a per-user
// sorted set scored by creation time, and the change feed is a
// pub/sub channel per user partition.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/logger"
	"github.com/nikbrunner/marq/internal/model"
)

// Options configures the Redis connection.
type Options struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingTimeout  time.Duration
	PoolSize     int
}

// Backend is a Redis-backed implementation of backend.Backend.
type Backend struct {
	client *goredis.Client
	log    logger.Logger

	mu      sync.Mutex
	current *model.User
}

var _ backend.Backend = (*Backend)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(opts Options, log logger.Logger) (*Backend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}

	log.Info("connected to redis", logger.String("addr", opts.Addr))
	return &Backend{client: client, log: log}, nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	return b.client.Close()
}

// SignIn looks up the account for email, creating it on first use,
// and makes it the current session user.
func (b *Backend) SignIn(ctx context.Context, email string) (*model.User, error) {
	id, err := b.client.Get(ctx, EmailKey(email)).Result()
	switch {
	case err == nil:
		data, err := b.client.Get(ctx, UserKey(id)).Bytes()
		if err != nil {
			return nil, fmt.Errorf("fetch user: %w", err)
		}
		var user model.User
		if err := json.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		b.setCurrent(&user)
		return &user, nil

	case errors.Is(err, goredis.Nil):
		user := model.User{ID: model.GenerateUUID(), Email: email}
		data, err := json.Marshal(user)
		if err != nil {
			return nil, fmt.Errorf("encode user: %w", err)
		}
		pipe := b.client.TxPipeline()
		pipe.Set(ctx, UserKey(user.ID), data, 0)
		pipe.Set(ctx, EmailKey(email), user.ID, 0)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		b.log.Info("created account", logger.String("user", user.ID))
		b.setCurrent(&user)
		return &user, nil

	default:
		return nil, fmt.Errorf("look up account: %w", err)
	}
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
	b.setCurrent(nil)
	return nil
}

func (b *Backend) setCurrent(user *model.User) {
	b.mu.Lock()
	b.current = user
	b.mu.Unlock()
}

// ListBookmarks returns the user's bookmarks, newest first.
func (b *Backend) ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error) {
	ids, err := b.client.ZRevRange(ctx, UserBookmarksKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list bookmark ids: %w", err)
	}
	if len(ids) == 0 {
		return []model.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}
	values, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch bookmarks: %w", err)
	}

	bookmarks := make([]model.Bookmark, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// Index entry without a record; skip.
			continue
		}
		var bm model.Bookmark
		if err := json.Unmarshal([]byte(s), &bm); err != nil {
			b.log.Warn("skipping undecodable bookmark", logger.Error(err))
			continue
		}
		bookmarks = append(bookmarks, bm)
	}
	return bookmarks, nil
}

// InsertBookmark persists a draft for userID and publishes a change
// event on the user's feed channel.
func (b *Backend) InsertBookmark(ctx context.Context, draft model.Draft, userID string) (model.Bookmark, error) {
	bm := model.Bookmark{
		ID:        model.GenerateUUID(),
		Title:     draft.Title,
		URL:       draft.URL,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(bm)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("encode bookmark: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, BookmarkKey(bm.ID), data, 0)
	pipe.ZAdd(ctx, UserBookmarksKey(userID), goredis.Z{
		Score:  float64(bm.CreatedAt.UnixNano()),
		Member: bm.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return model.Bookmark{}, fmt.Errorf("save bookmark: %w", err)
	}

	b.publish(ctx, userID, "insert")
	return bm, nil
}

// DeleteBookmark removes a bookmark from the user's partition.
func (b *Backend) DeleteBookmark(ctx context.Context, id, userID string) error {
	// Membership in the user's index doubles as the ownership check.
	if err := b.client.ZScore(ctx, UserBookmarksKey(userID), id).Err(); err != nil {
		if errors.Is(err, goredis.Nil) {
			return backend.ErrNotFound
		}
		return fmt.Errorf("check bookmark: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, BookmarkKey(id))
	pipe.ZRem(ctx, UserBookmarksKey(userID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}

	b.publish(ctx, userID, "delete")
	return nil
}

func (b *Backend) publish(ctx context.Context, userID, kind string) {
	// Best effort: a missed notification only delays the next refresh.
	if err := b.client.Publish(ctx, FeedChannel(userID), kind).Err(); err != nil {
		b.log.Warn("publish change event failed",
			logger.String("user", userID), logger.Error(err))
	}
}

// Subscribe opens a pub/sub subscription on the user's feed channel
// and forwards every message to onEvent.
func (b *Backend) Subscribe(ctx context.Context, userID string, onEvent backend.EventFunc) (backend.Subscription, error) {
	ps := b.client.Subscribe(ctx, FeedChannel(userID))
	// Force the subscription to be established before returning so
	// events published after Subscribe are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe to change feed: %w", err)
	}

	go func() {
		for msg := range ps.Channel() {
			onEvent(parseEvent(msg.Payload))
		}
	}()

	return &subscription{ps: ps}, nil
}

func parseEvent(payload string) backend.Event {
	switch payload {
	case "insert":
		return backend.Event{Kind: backend.EventInsert}
	case "delete":
		return backend.Event{Kind: backend.EventDelete}
	default:
		return backend.Event{Kind: backend.EventUnknown}
	}
}

type subscription struct {
	ps   *goredis.PubSub
	once sync.Once
}

// Close terminates the pub/sub subscription. Safe to call repeatedly.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
	})
	return err
}
