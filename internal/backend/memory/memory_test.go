package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/model"
)

func TestSignIn_CreatesAndReusesAccount(t *testing.T) {
	b := New()
	ctx := context.Background()

	first, err := b.SignIn(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := b.SignIn(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected same account, got %s and %s", first.ID, again.ID)
	}

	current, err := b.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current == nil || current.ID != first.ID {
		t.Errorf("current user = %v, want %s", current, first.ID)
	}
}

func TestSignOut_ClearsSession(t *testing.T) {
	b := New()
	ctx := context.Background()

	if _, err := b.SignIn(ctx, "me@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.SignOut(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current, err := b.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current != nil {
		t.Errorf("expected nil current user after sign-out, got %v", current)
	}
}

func TestListBookmarks_NewestFirst(t *testing.T) {
	b := New()
	ctx := context.Background()
	user, _ := b.SignIn(ctx, "me@example.com")

	for _, title := range []string{"first", "second", "third"} {
		if _, err := b.InsertBookmark(ctx, model.Draft{Title: title, URL: "https://example.com/" + title}, user.ID); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	list, err := b.ListBookmarks(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(list))
	}
	if list[0].Title != "third" || list[2].Title != "first" {
		t.Errorf("wrong order: %s, %s, %s", list[0].Title, list[1].Title, list[2].Title)
	}
}

func TestListBookmarks_PartitionedByUser(t *testing.T) {
	b := New()
	ctx := context.Background()

	alice, _ := b.SignIn(ctx, "alice@example.com")
	bob, _ := b.SignIn(ctx, "bob@example.com")

	if _, err := b.InsertBookmark(ctx, model.Draft{Title: "Alice's", URL: "https://a.example"}, alice.ID); err != nil {
		t.Fatalf("insert: %v", err)
	}

	list, err := b.ListBookmarks(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected bob to see 0 bookmarks, got %d", len(list))
	}
}

func TestDeleteBookmark_NotFound(t *testing.T) {
	b := New()
	ctx := context.Background()
	user, _ := b.SignIn(ctx, "me@example.com")

	err := b.DeleteBookmark(ctx, "missing", user.ID)
	if !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSubscribe_DeliversEvents(t *testing.T) {
	b := New()
	ctx := context.Background()
	user, _ := b.SignIn(ctx, "me@example.com")

	events := make(chan backend.Event, 4)
	sub, err := b.Subscribe(ctx, user.ID, func(ev backend.Event) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	bm, err := b.InsertBookmark(ctx, model.Draft{Title: "Docs", URL: "https://docs.com"}, user.ID)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != backend.EventInsert {
			t.Errorf("expected insert event, got %v", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for insert event")
	}

	if err := b.DeleteBookmark(ctx, bm.ID, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Kind != backend.EventDelete {
			t.Errorf("expected delete event, got %v", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delete event")
	}
}

func TestSubscription_CloseStopsDeliveryAndIsIdempotent(t *testing.T) {
	b := New()
	ctx := context.Background()
	user, _ := b.SignIn(ctx, "me@example.com")

	events := make(chan backend.Event, 4)
	sub, err := b.Subscribe(ctx, user.ID, func(ev backend.Event) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if _, err := b.InsertBookmark(ctx, model.Draft{Title: "Docs", URL: "https://docs.com"}, user.ID); err != nil {
		t.Fatalf("insert: %v", err)
	}

	select {
	case <-events:
		t.Error("received event after close")
	case <-time.After(50 * time.Millisecond):
	}
}
