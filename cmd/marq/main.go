package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/marq/internal/backend"
	"github.com/nikbrunner/marq/internal/backend/memory"
	"github.com/nikbrunner/marq/internal/backend/redis"
	"github.com/nikbrunner/marq/internal/backend/sqlite"
	"github.com/nikbrunner/marq/internal/browser"
	"github.com/nikbrunner/marq/internal/client"
	"github.com/nikbrunner/marq/internal/config"
	"github.com/nikbrunner/marq/internal/exporter"
	"github.com/nikbrunner/marq/internal/importer"
	"github.com/nikbrunner/marq/internal/linkcheck"
	"github.com/nikbrunner/marq/internal/logger"
	"github.com/nikbrunner/marq/internal/model"
	"github.com/nikbrunner/marq/internal/normalize"
	"github.com/nikbrunner/marq/internal/picker"
	"github.com/nikbrunner/marq/internal/search"
	"github.com/nikbrunner/marq/internal/tui"
)

const defaultEmail = "me@marq.local"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "--help", "-h":
			printHelp()
			return
		case "add":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: marq add <url> [title]\n")
				os.Exit(1)
			}
			title := ""
			if len(os.Args) >= 4 {
				title = strings.Join(os.Args[3:], " ")
			}
			runAdd(os.Args[2], title)
			return
		case "rm":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: marq rm <id>\n")
				os.Exit(1)
			}
			runRemove(os.Args[2])
			return
		case "list":
			runList()
			return
		case "import":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: marq import <file.html>\n")
				os.Exit(1)
			}
			runImport(os.Args[2])
			return
		case "export":
			var outputPath string
			if len(os.Args) >= 3 {
				outputPath = os.Args[2]
			}
			runExport(outputPath)
			return
		case "check":
			runCheck()
			return
		default:
			// Treat as search query (join all remaining args)
			query := strings.Join(os.Args[1:], " ")
			runQuickSearch(query)
			return
		}
	}

	// No args - run full TUI
	runTUI()
}

func printHelp() {
	help := `marq - synced bookmark manager

Usage:
  marq                  Open interactive dashboard
  marq <query>          Quick search by title → select → open
  marq add <url> [title]  Add a bookmark
  marq rm <id>          Delete a bookmark
  marq list             List all bookmarks
  marq import <file>    Import bookmarks from HTML
  marq export [path]    Export bookmarks to HTML
  marq check            Probe saved URLs for dead links
  marq help             Show this help

Dashboard Keybindings:
  j/k         Move down/up
  gg/G        Jump to top/bottom
  l/Enter/o   Open in browser
  a           Add bookmark
  d           Delete bookmark
  y           Copy URL to clipboard
  /           Filter list
  r           Refresh from backend
  s           Sign out
  q           Quit

Configuration:
  ~/.config/marq/config.yml (MARQ_* env vars override)
`
	fmt.Print(help)
}

// setup loads config, builds the logger and backend, and establishes
// the session. Close the returned cleanup when done.
func setup(forTUI bool) (*config.Config, logger.Logger, backend.Backend, func()) {
	configPath, err := config.DefaultPath()
	if err != nil {
		fatal("Error getting config path: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("Error loading config: %v", err)
	}
	if cfg.Email == "" {
		cfg.Email = defaultEmail
	}

	// A TUI session owns the terminal; without a log file, drop logs
	// instead of corrupting the screen.
	var log logger.Logger
	if forTUI && cfg.LogFile == "" {
		log = logger.Nop()
	} else {
		log, err = logger.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			fatal("Error creating logger: %v", err)
		}
	}

	be, err := newBackend(cfg, log)
	if err != nil {
		fatal("Error connecting to backend: %v", err)
	}

	cleanup := func() {
		if closer, ok := be.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		_ = log.Sync()
	}
	return cfg, log, be, cleanup
}

func newBackend(cfg *config.Config, log logger.Logger) (backend.Backend, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return redis.New(redis.Options{
			Addr:         cfg.Redis.Addr,
			Username:     cfg.Redis.Username,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PingTimeout:  cfg.Redis.PingTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		}, log)
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			var err error
			path, err = config.DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
		}
		return sqlite.New(path, log)
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// signIn establishes the session for CLI subcommands.
func signIn(ctx context.Context, cfg *config.Config, be backend.Backend) model.User {
	user, err := be.SignIn(ctx, cfg.Email)
	if err != nil {
		fatal("Error signing in: %v", err)
	}
	return *user
}

// runTUI runs the full interactive dashboard.
func runTUI() {
	cfg, log, be, cleanup := setup(true)
	defer cleanup()

	store := client.New(be, log)
	defer store.Teardown()

	app := tui.NewApp(tui.AppParams{Store: store, Backend: be, Email: cfg.Email})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal("Error running app: %v", err)
	}
}

// runQuickSearch performs a fuzzy title search and opens the selection.
func runQuickSearch(query string) {
	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	bookmarks, err := be.ListBookmarks(ctx, user.ID)
	if err != nil {
		fatal("Error loading bookmarks: %v", err)
	}

	results := search.FuzzySearchBookmarks(bookmarks, query)
	if len(results) == 0 {
		fmt.Printf("No bookmarks found for '%s'\n", query)
		return
	}

	var selected *model.Bookmark

	if len(results) == 1 {
		// Single result - select it directly
		selected = &results[0].Bookmark
		fmt.Printf("Opening: %s\n", selected.Title)
	} else {
		p := picker.New(results, query)
		program := tea.NewProgram(p)
		finalModel, err := program.Run()
		if err != nil {
			fatal("Error running picker: %v", err)
		}

		finalPicker := finalModel.(picker.Picker)
		if finalPicker.Cancelled() {
			return
		}
		selected = finalPicker.SelectedBookmark()
	}

	if selected == nil {
		return
	}
	browser.Open(selected.URL)
}

// runAdd handles the add subcommand.
func runAdd(rawURL, title string) {
	if title == "" {
		title = normalize.Domain(normalize.SafeURL(rawURL))
	}

	draft, err := normalize.NewDraft(title, rawURL)
	if err != nil {
		fatal("Invalid bookmark: %v", err)
	}

	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	bm, err := be.InsertBookmark(ctx, draft, user.ID)
	if err != nil {
		fatal("Error adding bookmark: %v", err)
	}
	fmt.Printf("Added %s (%s)\n", bm.Title, bm.ID)
}

// runRemove handles the rm subcommand.
func runRemove(id string) {
	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	if err := be.DeleteBookmark(ctx, id, user.ID); err != nil {
		fatal("Error deleting bookmark: %v", err)
	}
	fmt.Printf("Deleted %s\n", id)
}

// runList prints all bookmarks, newest first.
func runList() {
	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	bookmarks, err := be.ListBookmarks(ctx, user.ID)
	if err != nil {
		fatal("Error loading bookmarks: %v", err)
	}

	if len(bookmarks) == 0 {
		fmt.Println("No bookmarks yet.")
		return
	}
	for _, bm := range bookmarks {
		fmt.Printf("%s  %s  %s  %s\n", bm.ID, bm.CreatedAt.Format("2006-01-02"), bm.Title, bm.URL)
	}
}

// runImport handles the import subcommand.
func runImport(filePath string) {
	file, err := os.Open(filePath)
	if err != nil {
		fatal("Error opening file: %v", err)
	}
	defer file.Close()

	drafts, err := importer.ParseHTMLBookmarks(file)
	if err != nil {
		fatal("Error parsing HTML: %v", err)
	}

	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	existing, err := be.ListBookmarks(ctx, user.ID)
	if err != nil {
		fatal("Error loading bookmarks: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, bm := range existing {
		seen[bm.URL] = true
	}

	added, invalid, dupes := 0, 0, 0
	for _, d := range drafts {
		draft, err := normalize.NewDraft(d.Title, d.URL)
		if err != nil {
			invalid++
			continue
		}
		if seen[draft.URL] {
			dupes++
			continue
		}
		if _, err := be.InsertBookmark(ctx, draft, user.ID); err != nil {
			fatal("Error importing %s: %v", draft.URL, err)
		}
		seen[draft.URL] = true
		added++
	}

	fmt.Printf("Imported %d bookmarks", added)
	if dupes > 0 {
		fmt.Printf(" (%d duplicates skipped)", dupes)
	}
	if invalid > 0 {
		fmt.Printf(" (%d invalid entries skipped)", invalid)
	}
	fmt.Println()
}

// runExport handles the export subcommand.
func runExport(outputPath string) {
	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			fatal("Error getting default export path: %v", err)
		}
	}

	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	bookmarks, err := be.ListBookmarks(ctx, user.ID)
	if err != nil {
		fatal("Error loading bookmarks: %v", err)
	}

	html := exporter.ExportHTML(bookmarks)
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		fatal("Error writing file: %v", err)
	}

	fmt.Printf("Exported %d bookmarks to %s\n", len(bookmarks), outputPath)
}

// runCheck probes every saved URL and reports dead links.
func runCheck() {
	cfg, _, be, cleanup := setup(false)
	defer cleanup()

	ctx := context.Background()
	user := signIn(ctx, cfg, be)

	bookmarks, err := be.ListBookmarks(ctx, user.ID)
	if err != nil {
		fatal("Error loading bookmarks: %v", err)
	}
	if len(bookmarks) == 0 {
		fmt.Println("No bookmarks to check.")
		return
	}

	fmt.Printf("Checking %d bookmarks...\n", len(bookmarks))
	results := linkcheck.Check(bookmarks, 8, 10*time.Second, nil, func(completed, total int) {
		fmt.Printf("\r%d/%d", completed, total)
	})
	fmt.Println()

	dead, unreachable := 0, 0
	for _, r := range results {
		switch r.Status {
		case linkcheck.Dead:
			dead++
			fmt.Printf("DEAD        %s  %s (%d)\n", r.Bookmark.ID, r.Bookmark.URL, r.StatusCode)
		case linkcheck.Unreachable:
			unreachable++
			fmt.Printf("UNREACHABLE %s  %s (%s)\n", r.Bookmark.ID, r.Bookmark.URL, r.Error)
		}
	}

	fmt.Printf("%d healthy, %d dead, %d unreachable\n",
		len(results)-dead-unreachable, dead, unreachable)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
