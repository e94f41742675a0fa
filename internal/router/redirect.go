package router

import "net/http"

// RedirectEntry answers a matched request with a redirect instead of
// forwarding it. Stateless: the redirect URL is a pure function of the
// request headers.
type RedirectEntry struct {
	hostRedirect string
	pathRedirect string
}

// NewPath returns the redirect URL for the request. Host and path default
// to the request's own when not overridden by the route.
func (e *RedirectEntry) NewPath(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
	}

	host := e.hostRedirect
	if host == "" {
		host = r.Host
	}

	path := e.pathRedirect
	if path == "" {
		path = r.URL.RequestURI()
	}

	return scheme + "://" + host + path
}
