package tui

import "strings"

// Hint represents a single keybind hint for display.
type Hint struct {
	Key  string // Display key (e.g., "j/k", "Enter")
	Desc string // Short description (e.g., "move", "open")
}

// renderHints renders hints in horizontal format for the bottom bar:
// "j/k:move a:add d:del"
func (a App) renderHints(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = a.styles.HintKey.Render(h.Key) + ":" + a.styles.HintDesc.Render(h.Desc)
	}
	return strings.Join(parts, " ")
}

// getContextualHints returns the appropriate hints for the current mode.
func (a App) getContextualHints() []Hint {
	switch a.mode {
	case ModeSignIn:
		return []Hint{
			{Key: "Enter", Desc: "continue"},
			{Key: "q", Desc: "quit"},
		}
	case ModeBrowse:
		return []Hint{
			{Key: "j/k", Desc: "move"},
			{Key: "l/Enter", Desc: "open"},
			{Key: "a", Desc: "add"},
			{Key: "d", Desc: "del"},
			{Key: "y", Desc: "yank"},
			{Key: "/", Desc: "filter"},
			{Key: "r", Desc: "refresh"},
			{Key: "s", Desc: "sign out"},
			{Key: "q", Desc: "quit"},
		}
	case ModeAdd:
		return []Hint{
			{Key: "Tab", Desc: "next field"},
			{Key: "Enter", Desc: "save"},
			{Key: "Esc", Desc: "clear"},
		}
	case ModeFilter:
		return []Hint{
			{Key: "type", Desc: "filter"},
			{Key: "Enter", Desc: "apply"},
			{Key: "Esc", Desc: "clear"},
		}
	default:
		return nil
	}
}
