package layout

// Config holds layout-related configuration values.
type Config struct {
	Input InputConfig
	Text  TextConfig
}

// InputConfig holds text input configuration.
type InputConfig struct {
	// Character limits
	TitleCharLimit  int
	URLCharLimit    int
	FilterCharLimit int
	EmailCharLimit  int

	// Display widths
	StandardWidth int
	FilterWidth   int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			TitleCharLimit:  100,
			URLCharLimit:    500,
			FilterCharLimit: 100,
			EmailCharLimit:  100,
			StandardWidth:   40,
			FilterWidth:     30,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
