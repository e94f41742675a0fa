package router

import (
	"net/http"

	"github.com/cespare/xxhash/v2"
)

// HashPolicy produces the affinity hash a hashing load balancer uses to pin
// requests with the same key to the same upstream host. Nil on routes
// without affinity.
type HashPolicy struct {
	headerName string
}

// HeaderName returns the request header the hash is derived from.
func (p *HashPolicy) HeaderName() string { return p.headerName }

// GenerateHash returns the 64-bit hash for the request headers. The second
// return is false when the configured header is absent, meaning the load
// balancer should fall back to its default selection.
func (p *HashPolicy) GenerateHash(h http.Header) (uint64, bool) {
	v := h.Get(p.headerName)
	if v == "" {
		return 0, false
	}
	return xxhash.Sum64String(v), true
}
