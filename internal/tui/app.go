// Package tui implements the interactive bookmark dashboard. It runs
// on bubbletea's single event loop: backend calls are dispatched as
// commands, and change-feed arrivals come back in as messages, so no
// handler ever blocks the UI.
package tui

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/browser"
	"github.com/nikbrunner/marq/internal/client"
	"github.com/nikbrunner/marq/internal/model"
	"github.com/nikbrunner/marq/internal/normalize"
	"github.com/nikbrunner/marq/internal/search"
	"github.com/nikbrunner/marq/internal/tui/layout"
)

// Mode identifies the active view state.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeBrowse
	ModeAdd
	ModeFilter
)

// App is the main bubbletea model for the bookmark dashboard.
type App struct {
	store   *client.Store
	backend backend.Backend
	email   string

	keys   KeyMap
	styles Styles
	cfg    layout.Config

	mode    Mode
	cursor  int
	visible []model.Bookmark

	// Add form
	titleInput textinput.Model
	urlInput   textinput.Model
	urlFocused bool

	// Live filter
	filterInput textinput.Model
	query       string

	status    string // transient notification (backend errors, yanks)
	signInErr string

	// For gg command
	lastKeyWasG bool

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Store   *client.Store
	Backend backend.Backend
	Email   string  // account offered on the sign-in view
	Keys    *KeyMap // optional, uses default if nil
	Styles  *Styles // optional, uses default if nil
}

// NewApp creates a new App showing the sign-in view.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	cfg := layout.DefaultConfig()

	titleInput := textinput.New()
	titleInput.Placeholder = "Title"
	titleInput.CharLimit = cfg.Input.TitleCharLimit
	titleInput.Width = cfg.Input.StandardWidth

	urlInput := textinput.New()
	urlInput.Placeholder = "URL"
	urlInput.CharLimit = cfg.Input.URLCharLimit
	urlInput.Width = cfg.Input.StandardWidth

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter..."
	filterInput.CharLimit = cfg.Input.FilterCharLimit
	filterInput.Width = cfg.Input.FilterWidth

	return App{
		store:       params.Store,
		backend:     params.Backend,
		email:       params.Email,
		keys:        keys,
		styles:      styles,
		cfg:         cfg,
		mode:        ModeSignIn,
		titleInput:  titleInput,
		urlInput:    urlInput,
		filterInput: filterInput,
		width:       80,
		height:      24,
	}
}

// Messages produced by commands.
type (
	sessionReadyMsg struct{ user model.User }
	sessionErrMsg   struct{ err error }
	refreshedMsg    struct{}
	addedMsg        struct{}
	removedMsg      struct{}
	opErrMsg        struct{ err error }
	feedMsg         struct{}
)

// signInCmd establishes the session and initializes the store.
func (a App) signInCmd() tea.Cmd {
	store, be, email := a.store, a.backend, a.email
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := be.SignIn(ctx, email); err != nil {
			return sessionErrMsg{err}
		}
		if err := store.Initialize(ctx); err != nil {
			return sessionErrMsg{err}
		}
		return sessionReadyMsg{user: store.User()}
	}
}

func (a App) refreshCmd() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if err := store.Refresh(context.Background()); err != nil {
			return opErrMsg{err}
		}
		return refreshedMsg{}
	}
}

func (a App) addCmd(draft model.Draft) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if err := store.Add(context.Background(), draft); err != nil {
			return opErrMsg{err}
		}
		return addedMsg{}
	}
}

func (a App) removeCmd(id string) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if err := store.Remove(context.Background(), id); err != nil {
			return opErrMsg{err}
		}
		return removedMsg{}
	}
}

// waitForChange blocks on the store's change signal and re-enters the
// event loop when a feed-triggered refresh replaced the snapshot.
func (a App) waitForChange() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		<-store.Changes()
		return feedMsg{}
	}
}

// refreshVisible recomputes the filtered list from the store snapshot
// and clamps the cursor.
func (a *App) refreshVisible() {
	a.visible = search.Filter(a.store.Snapshot(), a.query)
	if a.cursor >= len(a.visible) {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// selected returns the bookmark under the cursor, or nil.
func (a *App) selected() *model.Bookmark {
	if len(a.visible) == 0 || a.cursor >= len(a.visible) {
		return nil
	}
	return &a.visible[a.cursor]
}

// Mode returns the current view mode.
func (a App) Mode() Mode {
	return a.mode
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Visible returns the currently displayed bookmarks.
func (a App) Visible() []model.Bookmark {
	return a.visible
}

// Status returns the current transient status line.
func (a App) Status() string {
	return a.status
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case sessionReadyMsg:
		a.mode = ModeBrowse
		a.signInErr = ""
		a.refreshVisible()
		return a, a.waitForChange()

	case sessionErrMsg:
		a.mode = ModeSignIn
		a.signInErr = msg.err.Error()
		return a, nil

	case refreshedMsg:
		a.status = ""
		a.refreshVisible()
		return a, nil

	case addedMsg:
		// Non-optimistic add: pull the new row explicitly rather than
		// waiting for the change feed.
		return a, a.refreshCmd()

	case removedMsg:
		return a, a.refreshCmd()

	case feedMsg:
		// The store already replaced the snapshot; re-render and keep
		// listening.
		a.refreshVisible()
		return a, a.waitForChange()

	case opErrMsg:
		a.status = msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case ModeSignIn:
			return a.updateSignIn(msg)
		case ModeBrowse:
			return a.updateBrowse(msg)
		case ModeAdd:
			return a.updateAdd(msg)
		case ModeFilter:
			return a.updateFilter(msg)
		}
	}

	return a, nil
}

// updateSignIn handles keys on the sign-in view.
func (a App) updateSignIn(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEnter:
		a.signInErr = ""
		return a, a.signInCmd()
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	}
	return a, nil
}

// updateBrowse handles keys on the dashboard list.
func (a App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.store.Teardown()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(a.visible) > 0 && a.cursor < len(a.visible)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.visible) > 0 {
			a.cursor = len(a.visible) - 1
		}

	case key.Matches(msg, a.keys.Add):
		a.mode = ModeAdd
		a.status = ""
		a.titleInput.Reset()
		a.urlInput.Reset()
		a.urlFocused = false
		a.titleInput.Focus()
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Filter):
		a.mode = ModeFilter
		a.filterInput.SetValue(a.query)
		a.filterInput.Focus()
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Refresh):
		return a, a.refreshCmd()

	case key.Matches(msg, a.keys.Delete):
		if bm := a.selected(); bm != nil {
			return a, a.removeCmd(bm.ID)
		}

	case key.Matches(msg, a.keys.Open):
		if bm := a.selected(); bm != nil {
			browser.Open(bm.URL)
		}

	case key.Matches(msg, a.keys.YankURL):
		if bm := a.selected(); bm != nil {
			if err := clipboard.WriteAll(bm.URL); err != nil {
				a.status = "clipboard unavailable"
			} else {
				a.status = "copied " + bm.URL
			}
		}

	case key.Matches(msg, a.keys.SignOut):
		a.store.Teardown()
		a.backend.SignOut(context.Background())
		a.mode = ModeSignIn
		a.cursor = 0
		a.query = ""
		a.visible = nil
		a.status = ""
	}

	return a, nil
}

// updateAdd handles keys on the add form.
func (a App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Clear action: drop the draft and close the form.
		a.mode = ModeBrowse
		a.titleInput.Reset()
		a.urlInput.Reset()
		a.status = ""
		return a, nil

	case tea.KeyTab, tea.KeyShiftTab:
		a.urlFocused = !a.urlFocused
		if a.urlFocused {
			a.titleInput.Blur()
			a.urlInput.Focus()
		} else {
			a.urlInput.Blur()
			a.titleInput.Focus()
		}
		return a, textinput.Blink

	case tea.KeyEnter:
		draft, err := normalize.NewDraft(a.titleInput.Value(), a.urlInput.Value())
		if err != nil {
			var verr *normalize.ValidationError
			if errors.As(err, &verr) {
				a.status = verr.Reason
			} else {
				a.status = err.Error()
			}
			return a, nil
		}
		a.mode = ModeBrowse
		a.titleInput.Reset()
		a.urlInput.Reset()
		a.status = ""
		return a, a.addCmd(draft)
	}

	var cmd tea.Cmd
	if a.urlFocused {
		a.urlInput, cmd = a.urlInput.Update(msg)
	} else {
		a.titleInput, cmd = a.titleInput.Update(msg)
	}
	return a, cmd
}

// updateFilter handles keys while the filter box is focused. The list
// narrows live as the query changes.
func (a App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = ModeBrowse
		a.filterInput.Reset()
		a.query = ""
		a.refreshVisible()
		return a, nil

	case tea.KeyEnter:
		a.mode = ModeBrowse
		a.filterInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.query = a.filterInput.Value()
	a.refreshVisible()
	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
