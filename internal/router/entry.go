package router

import (
	"net/http"
	"strings"
	"time"
)

// HeaderInternal marks requests that originated inside the mesh. Requests
// without it have the table's internal-only headers stripped before
// forwarding.
const HeaderInternal = "X-Gateway-Internal"

// RouteEntry is one resolved forwarding rule. Immutable after table build;
// all accessors are safe for unlimited concurrent callers.
type RouteEntry struct {
	table    *Table
	vhostIdx int

	clusterName string
	timeout     time.Duration
	priority    Priority

	retryPolicy  RetryPolicy
	shadowPolicy ShadowPolicy
	corsPolicy   *CorsPolicy
	hashPolicy   *HashPolicy

	matchedPrefix string // the rule's prefix (or exact path), used by prefix rewrite
	prefixRewrite string
	hostRewrite   string

	autoHostRewrite   bool
	useWebSocket      bool
	includeVHLimits   bool
	requestHeadersAdd []Pair
	requestHeadersDel []string
	opaque            []Pair
}

// ClusterName returns the upstream cluster that owns the route.
func (e *RouteEntry) ClusterName() string { return e.clusterName }

// Timeout returns the overall timeout for the route.
func (e *RouteEntry) Timeout() time.Duration { return e.timeout }

// Priority returns the resource priority of the route.
func (e *RouteEntry) Priority() Priority { return e.priority }

// RetryPolicy returns the route's retry policy. Every route has one, even
// when it allows no retries.
func (e *RouteEntry) RetryPolicy() RetryPolicy { return e.retryPolicy }

// ShadowPolicy returns the route's shadow policy. Every route has one, even
// when no shadowing takes place.
func (e *RouteEntry) ShadowPolicy() ShadowPolicy { return e.shadowPolicy }

// CorsPolicy returns the route-level CORS policy, or nil when the route has
// none of its own. See CorsPolicyFor for virtual-host fallback.
func (e *RouteEntry) CorsPolicy() *CorsPolicy { return e.corsPolicy }

// HashPolicy returns the route's hash policy, or nil when the route has no
// upstream affinity.
func (e *RouteEntry) HashPolicy() *HashPolicy { return e.hashPolicy }

// AutoHostRewrite reports whether the authority should be overwritten with
// the resolved upstream hostname.
func (e *RouteEntry) AutoHostRewrite() bool { return e.autoHostRewrite }

// UseWebSocket reports whether the route upgrades to WebSocket.
func (e *RouteEntry) UseWebSocket() bool { return e.useWebSocket }

// IncludeVirtualHostRateLimits reports whether virtual host rate limits
// apply in addition to the route's own.
func (e *RouteEntry) IncludeVirtualHostRateLimits() bool { return e.includeVHLimits }

// OpaqueConfig returns the route's opaque key/value configuration in
// declaration order. Duplicate keys are preserved.
func (e *RouteEntry) OpaqueConfig() []Pair { return e.opaque }

// VirtualHost returns the virtual host that owns the route.
func (e *RouteEntry) VirtualHost() *VirtualHost { return e.table.vhosts[e.vhostIdx] }

// VirtualCluster returns the first virtual cluster of the owning virtual
// host that the request belongs to, or nil. Stats attribution only.
func (e *RouteEntry) VirtualCluster(r *http.Request) *VirtualCluster {
	vcs := e.VirtualHost().vclusters
	for i := range vcs {
		if vcs[i].Matches(r) {
			return &vcs[i]
		}
	}
	return nil
}

// FinalizeRequestHeaders applies destructive request transforms prior to
// forwarding: prefix rewrite, header add/remove, internal-only header
// stripping for external traffic, and authority rewrite. Call exactly once,
// immediately before dispatch; on a retry the caller must present the
// original, unmutated request again.
func (e *RouteEntry) FinalizeRequestHeaders(r *http.Request, info RequestInfo) {
	if e.prefixRewrite != "" {
		suffix := strings.TrimPrefix(r.URL.Path, e.matchedPrefix)
		r.URL.Path = singleJoinSlash(e.prefixRewrite, suffix)
	}

	if r.Header.Get(HeaderInternal) != "true" {
		for _, name := range e.table.internalOnlyHeaders {
			r.Header.Del(name)
		}
	}

	for _, name := range e.requestHeadersDel {
		r.Header.Del(name)
	}
	for _, p := range e.requestHeadersAdd {
		r.Header.Set(p.Key, p.Value)
	}

	switch {
	case e.hostRewrite != "":
		r.Host = e.hostRewrite
	case e.autoHostRewrite && info != nil:
		if host := info.UpstreamHost(); host != "" {
			r.Host = host
		}
	}
}

// singleJoinSlash joins two URL path segments with exactly one slash.
func singleJoinSlash(a, b string) string {
	if b == "" {
		return a
	}
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
