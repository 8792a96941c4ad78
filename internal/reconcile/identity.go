package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// CanonicalURL strips query parameters and fragments from a listing link.
// Portals append tracking noise ("?reason=extended_search_extended") to
// otherwise stable offer URLs, so identity is derived from scheme+host+path
// only. Unparseable input is returned as-is rather than rejected.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}

// Key derives the stable identity for a listing: a hex digest of the portal
// name and the canonical URL. Deterministic across scrapes, so a re-rendered
// title or reshuffled query string never creates a second row.
func Key(portal model.Portal, rawURL string) string {
	sum := sha256.Sum256([]byte(string(portal) + ":" + CanonicalURL(rawURL)))
	return hex.EncodeToString(sum[:])
}
