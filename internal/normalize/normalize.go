// Package normalize turns raw user input into validated bookmark
// drafts. Everything here is pure: no network, no side effects.
package normalize

import (
	"net/url"
	"strings"

	"github.com/nikbrunner/marq/internal/model"
)

// ValidationError reports why raw input was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Rejection reasons.
const (
	ReasonMissingFields = "missing fields"
	ReasonInvalidURL    = "invalid URL"
)

var (
	errMissingFields = &ValidationError{Reason: ReasonMissingFields}
	errInvalidURL    = &ValidationError{Reason: ReasonInvalidURL}
)

// NewDraft validates raw title and URL input and returns a canonical
// draft. The URL gets an https:// prefix if no http(s) scheme is
// present; beyond that it is left untouched (no trailing-slash or
// host-case normalization). Idempotent for already-normalized input.
func NewDraft(title, rawURL string) (model.Draft, error) {
	title = strings.TrimSpace(title)
	safe := SafeURL(rawURL)
	if title == "" || safe == "" {
		return model.Draft{}, errMissingFields
	}
	if !IsValidURL(safe) {
		return model.Draft{}, errInvalidURL
	}
	return model.Draft{Title: title, URL: safe}, nil
}

// SafeURL trims raw input and prefixes https:// unless an http or
// https scheme is already present. Empty input stays empty.
func SafeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// IsValidURL reports whether raw parses as an absolute URL with a host.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Domain extracts a display domain from a URL, stripping a leading
// "www.". Returns "" on parse failure; cosmetic use only.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
