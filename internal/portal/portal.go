// Package portal holds one adapter per listings source. Adapters are pure
// functions of (criteria, client): they never touch the store, and their
// selector and path constants live in per-adapter tables so that upstream
// markup changes are a constant edit, not a logic change.
package portal

import (
	"context"
	"strings"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// Portal is implemented by each listings source adapter.
type Portal interface {
	// Name returns the portal identifier ("otodom", "olx", "gratka").
	Name() model.Portal

	// Origin returns the scheme+host used to absolutize relative links.
	Origin() string

	// Fetch retrieves one result page and returns whatever listings were
	// successfully built. A returned error means the whole page was
	// unreachable or unrecognized; individual malformed candidates are
	// skipped inside the adapter and never surface as an error.
	Fetch(ctx context.Context, client *Client, criteria model.Criteria) ([]model.Listing, error)
}

// absURL rewrites a possibly-relative href against the portal origin.
// Protocol-relative hrefs keep their host and inherit the origin's scheme.
func absURL(origin, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		scheme, _, ok := strings.Cut(origin, "//")
		if !ok {
			scheme = "https:"
		}
		return scheme + href
	}
	return origin + "/" + strings.TrimPrefix(href, "/")
}
