package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/marq/internal/backend/memory"
	"github.com/nikbrunner/marq/internal/client"
	"github.com/nikbrunner/marq/internal/logger"
	"github.com/nikbrunner/marq/internal/model"
	"github.com/nikbrunner/marq/internal/normalize"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newTestApp returns an app in browse mode over a seeded memory
// backend, together with its store.
func newTestApp(t *testing.T, titles ...string) (App, *client.Store) {
	t.Helper()

	be := memory.New()
	ctx := context.Background()
	user, err := be.SignIn(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	for _, title := range titles {
		if _, err := be.InsertBookmark(ctx, model.Draft{Title: title, URL: "https://example.com/" + title}, user.ID); err != nil {
			t.Fatalf("seed %s: %v", title, err)
		}
	}

	store := client.New(be, logger.Nop())
	t.Cleanup(func() { store.Teardown() })
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	app := NewApp(AppParams{Store: store, Backend: be, Email: "me@example.com"})
	m, _ := app.Update(sessionReadyMsg{user: store.User()})
	return m.(App), store
}

func TestNewApp_StartsAtSignIn(t *testing.T) {
	be := memory.New()
	store := client.New(be, logger.Nop())

	app := NewApp(AppParams{Store: store, Backend: be, Email: "me@example.com"})
	if app.Mode() != ModeSignIn {
		t.Errorf("mode = %v, want ModeSignIn", app.Mode())
	}
}

func TestSignIn_EnterEstablishesSession(t *testing.T) {
	be := memory.New()
	store := client.New(be, logger.Nop())
	t.Cleanup(func() { store.Teardown() })

	app := NewApp(AppParams{Store: store, Backend: be, Email: "me@example.com"})
	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected sign-in command")
	}

	msg := cmd()
	if _, ok := msg.(sessionReadyMsg); !ok {
		t.Fatalf("expected sessionReadyMsg, got %T", msg)
	}

	m, _ = m.Update(msg)
	if m.(App).Mode() != ModeBrowse {
		t.Errorf("mode = %v, want ModeBrowse", m.(App).Mode())
	}
}

func TestBrowse_CursorNavigation(t *testing.T) {
	app, _ := newTestApp(t, "one", "two", "three")

	if app.Cursor() != 0 {
		t.Fatalf("initial cursor = %d", app.Cursor())
	}

	m, _ := app.Update(keyRunes("j"))
	app = m.(App)
	if app.Cursor() != 1 {
		t.Errorf("cursor after j = %d, want 1", app.Cursor())
	}

	m, _ = app.Update(keyRunes("G"))
	app = m.(App)
	if app.Cursor() != 2 {
		t.Errorf("cursor after G = %d, want 2", app.Cursor())
	}

	// j at bottom stays put
	m, _ = app.Update(keyRunes("j"))
	app = m.(App)
	if app.Cursor() != 2 {
		t.Errorf("cursor past bottom = %d, want 2", app.Cursor())
	}

	// gg returns to top
	m, _ = app.Update(keyRunes("g"))
	app = m.(App)
	m, _ = app.Update(keyRunes("g"))
	app = m.(App)
	if app.Cursor() != 0 {
		t.Errorf("cursor after gg = %d, want 0", app.Cursor())
	}
}

func TestAddForm_RejectsMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	m, _ := app.Update(keyRunes("a"))
	app = m.(App)
	if app.Mode() != ModeAdd {
		t.Fatalf("mode = %v, want ModeAdd", app.Mode())
	}

	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	if cmd != nil {
		t.Error("expected no command for invalid draft")
	}
	if app.Mode() != ModeAdd {
		t.Error("expected form to stay open on validation error")
	}
	if app.Status() != normalize.ReasonMissingFields {
		t.Errorf("status = %q, want %q", app.Status(), normalize.ReasonMissingFields)
	}
}

func TestAddForm_SubmitsNormalizedDraft(t *testing.T) {
	app, store := newTestApp(t)

	m, _ := app.Update(keyRunes("a"))
	app = m.(App)
	app.titleInput.SetValue("Docs")
	app.urlInput.SetValue("docs.com")

	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	if app.Mode() != ModeBrowse {
		t.Errorf("mode = %v, want ModeBrowse after submit", app.Mode())
	}
	if cmd == nil {
		t.Fatal("expected add command")
	}

	// Run the add, then the refresh it schedules.
	msg := cmd()
	if _, ok := msg.(addedMsg); !ok {
		t.Fatalf("expected addedMsg, got %T", msg)
	}
	m, cmd = app.Update(msg)
	app = m.(App)
	if cmd == nil {
		t.Fatal("expected refresh command after add")
	}
	m, _ = app.Update(cmd())
	app = m.(App)

	visible := app.Visible()
	if len(visible) != 1 || visible[0].URL != "https://docs.com" {
		t.Errorf("visible = %v, want one bookmark with https://docs.com", visible)
	}

	snap := store.Snapshot()
	if len(snap) != 1 || snap[0].Title != "Docs" {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestAddForm_EscClears(t *testing.T) {
	app, _ := newTestApp(t)

	m, _ := app.Update(keyRunes("a"))
	app = m.(App)
	app.titleInput.SetValue("half-typed")

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if app.Mode() != ModeBrowse {
		t.Errorf("mode = %v, want ModeBrowse", app.Mode())
	}
	if app.titleInput.Value() != "" {
		t.Errorf("title input not cleared: %q", app.titleInput.Value())
	}
}

func TestFilter_NarrowsList(t *testing.T) {
	app, _ := newTestApp(t, "Google Docs", "GitHub")

	m, _ := app.Update(keyRunes("/"))
	app = m.(App)
	if app.Mode() != ModeFilter {
		t.Fatalf("mode = %v, want ModeFilter", app.Mode())
	}

	for _, r := range "hub" {
		m, _ = app.Update(keyRunes(string(r)))
		app = m.(App)
	}

	visible := app.Visible()
	if len(visible) != 1 || visible[0].Title != "GitHub" {
		t.Errorf("visible = %v, want GitHub only", visible)
	}

	// Esc clears the filter
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if len(app.Visible()) != 2 {
		t.Errorf("expected full list after esc, got %d", len(app.Visible()))
	}
}

func TestDelete_RemovesSelected(t *testing.T) {
	app, store := newTestApp(t, "one", "two")

	m, cmd := app.Update(keyRunes("d"))
	app = m.(App)
	if cmd == nil {
		t.Fatal("expected remove command")
	}

	msg := cmd()
	if _, ok := msg.(removedMsg); !ok {
		t.Fatalf("expected removedMsg, got %T", msg)
	}
	m, cmd = app.Update(msg)
	app = m.(App)
	if cmd == nil {
		t.Fatal("expected refresh command after remove")
	}
	m, _ = app.Update(cmd())
	app = m.(App)

	if len(app.Visible()) != 1 {
		t.Errorf("expected 1 visible bookmark, got %d", len(app.Visible()))
	}
	if len(store.Snapshot()) != 1 {
		t.Errorf("expected 1 bookmark in snapshot, got %d", len(store.Snapshot()))
	}
}

func TestFeedEvent_UpdatesList(t *testing.T) {
	app, store := newTestApp(t)

	be := app.backend.(*memory.Backend)
	user, _ := be.CurrentUser(context.Background())
	if _, err := be.InsertBookmark(context.Background(), model.Draft{Title: "Docs", URL: "https://docs.com"}, user.ID); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// The store refreshes on the feed goroutine and signals Changes;
	// waitForChange turns that into a feedMsg.
	select {
	case <-store.Changes():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change signal")
	}

	m, _ := app.Update(feedMsg{})
	app = m.(App)
	if len(app.Visible()) != 1 {
		t.Errorf("expected 1 visible bookmark after feed event, got %d", len(app.Visible()))
	}
}
