package exporter

import (
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/marq/internal/importer"
	"github.com/nikbrunner/marq/internal/model"
)

func TestExportHTML_Empty(t *testing.T) {
	html := ExportHTML(nil)

	// Should have basic structure even when empty
	if !strings.Contains(html, "<!DOCTYPE NETSCAPE-Bookmark-file-1>") {
		t.Error("expected DOCTYPE declaration")
	}
	if !strings.Contains(html, "<TITLE>Bookmarks</TITLE>") {
		t.Error("expected TITLE element")
	}
	if !strings.Contains(html, "<H1>Bookmarks</H1>") {
		t.Error("expected H1 element")
	}
}

func TestExportHTML_SingleBookmark(t *testing.T) {
	html := ExportHTML([]model.Bookmark{
		{
			ID:        "b1",
			Title:     "GitHub",
			URL:       "https://github.com",
			CreatedAt: time.Unix(1700000000, 0),
		},
	})

	if !strings.Contains(html, `<A HREF="https://github.com"`) {
		t.Error("expected bookmark URL")
	}
	if !strings.Contains(html, "GitHub</A>") {
		t.Error("expected bookmark title")
	}
	if !strings.Contains(html, `ADD_DATE="1700000000"`) {
		t.Error("expected ADD_DATE timestamp")
	}
}

func TestExportHTML_PreservesOrder(t *testing.T) {
	html := ExportHTML([]model.Bookmark{
		{ID: "b1", Title: "Newest", URL: "https://new.com", CreatedAt: time.Unix(1700000002, 0)},
		{ID: "b2", Title: "Oldest", URL: "https://old.com", CreatedAt: time.Unix(1700000001, 0)},
	})

	newIdx := strings.Index(html, "Newest</A>")
	oldIdx := strings.Index(html, "Oldest</A>")
	if newIdx == -1 || oldIdx == -1 {
		t.Fatal("missing bookmarks in output")
	}
	if newIdx > oldIdx {
		t.Error("expected input order to be preserved")
	}
}

func TestExportHTML_EscapesSpecialCharacters(t *testing.T) {
	html := ExportHTML([]model.Bookmark{
		{
			ID:        "b1",
			Title:     "Test <script>alert('xss')</script>",
			URL:       "https://example.com?foo=bar&baz=qux",
			CreatedAt: time.Now(),
		},
	})

	// Title should be escaped
	if strings.Contains(html, "<script>") {
		t.Error("script tag should be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("expected escaped script tag")
	}

	// URL should be escaped
	if strings.Contains(html, "foo=bar&baz") {
		t.Error("ampersand should be escaped in URL")
	}
	if !strings.Contains(html, "foo=bar&amp;baz") {
		t.Error("expected escaped ampersand in URL")
	}
}

func TestExportHTML_RoundTripsThroughImporter(t *testing.T) {
	html := ExportHTML([]model.Bookmark{
		{ID: "b1", Title: "GitHub", URL: "https://github.com", CreatedAt: time.Unix(1700000000, 0)},
		{ID: "b2", Title: "Google Docs", URL: "https://docs.google.com", CreatedAt: time.Unix(1700000001, 0)},
	})

	drafts, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Title != "GitHub" || drafts[0].URL != "https://github.com" {
		t.Errorf("unexpected first draft: %+v", drafts[0])
	}
	if drafts[1].Title != "Google Docs" || drafts[1].URL != "https://docs.google.com" {
		t.Errorf("unexpected second draft: %+v", drafts[1])
	}
}
