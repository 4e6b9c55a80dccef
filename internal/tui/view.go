package tui

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/marq/internal/normalize"
	"github.com/nikbrunner/marq/internal/tui/layout"
)

// renderView renders the full screen for the current mode.
func (a App) renderView() string {
	if a.mode == ModeSignIn {
		return a.styles.App.Render(a.renderSignIn())
	}
	return a.styles.App.Render(a.renderDashboard())
}

// renderSignIn renders the sign-in view: a single continue action.
func (a App) renderSignIn() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("marq"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Label.Render("Sign in as "))
	b.WriteString(a.styles.Email.Render(a.email))
	b.WriteString("\n\n")

	if a.signInErr != "" {
		b.WriteString(a.styles.Error.Render(a.signInErr))
		b.WriteString("\n\n")
	}

	b.WriteString(a.renderHints(a.getContextualHints()))
	return b.String()
}

// renderDashboard renders the bookmark list with the add form, filter
// box, status line, and hint bar.
func (a App) renderDashboard() string {
	var b strings.Builder

	// Header
	b.WriteString(a.styles.Title.Render("marq"))
	b.WriteString("  ")
	b.WriteString(a.styles.Email.Render(a.store.User().Email))
	b.WriteString("\n\n")

	// Add form
	if a.mode == ModeAdd {
		b.WriteString(a.styles.Label.Render("Title "))
		b.WriteString(a.titleInput.View())
		b.WriteString("\n")
		b.WriteString(a.styles.Label.Render("URL   "))
		b.WriteString(a.urlInput.View())
		b.WriteString("\n\n")
	}

	// Filter box
	if a.mode == ModeFilter {
		b.WriteString(a.styles.Label.Render("Filter "))
		b.WriteString(a.filterInput.View())
		b.WriteString("\n\n")
	} else if a.query != "" {
		b.WriteString(a.styles.Label.Render("Filter: "))
		b.WriteString(a.query)
		b.WriteString("\n\n")
	}

	b.WriteString(a.renderList())
	b.WriteString("\n")

	// Status line for transient notifications
	if a.status != "" {
		b.WriteString(a.styles.Status.Render(a.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderHints(a.getContextualHints()))
	return b.String()
}

// renderList renders the visible bookmarks.
func (a App) renderList() string {
	if len(a.visible) == 0 {
		if a.query != "" {
			return a.styles.Empty.Render("No bookmarks match the filter.")
		}
		return a.styles.Empty.Render("No bookmarks yet. Press 'a' to add one.")
	}

	titleWidth := a.width / 3
	if titleWidth < 20 {
		titleWidth = 20
	}
	urlWidth := a.width / 2
	if urlWidth < 30 {
		urlWidth = 30
	}

	var b strings.Builder
	for i, bm := range a.visible {
		title, _ := layout.TruncateText(bm.Title, titleWidth, a.cfg.Text)
		url, _ := layout.TruncateText(bm.URL, urlWidth, a.cfg.Text)
		date := bm.CreatedAt.Format("2006-01-02")

		line := fmt.Sprintf("%-*s  %s", titleWidth, title, url)
		if i == a.cursor && a.mode != ModeAdd {
			b.WriteString(a.styles.ItemSelected.Render(line))
		} else {
			b.WriteString(a.styles.Item.Render(line))
		}

		if domain := normalize.Domain(bm.URL); domain != "" {
			b.WriteString("  ")
			b.WriteString(a.styles.Domain.Render(domain))
		}
		b.WriteString("  ")
		b.WriteString(a.styles.Date.Render(date))
		b.WriteString("\n")
	}
	return b.String()
}
