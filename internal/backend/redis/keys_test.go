package redis

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user", UserKey("u1"), "marq:user:u1"},
		{"email folded", EmailKey("Me@Example.COM"), "marq:email:me@example.com"},
		{"email trimmed", EmailKey("  me@example.com "), "marq:email:me@example.com"},
		{"bookmark", BookmarkKey("b1"), "marq:bm:b1"},
		{"user bookmarks", UserBookmarksKey("u1"), "marq:bm:user:u1"},
		{"feed channel", FeedChannel("u1"), "marq:feed:u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
