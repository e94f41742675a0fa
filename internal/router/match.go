package router

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/wudi/routecore/internal/config"
)

// routeMatcher is the compiled predicate of one routing rule. Regexes are
// compiled once at table build time.
type routeMatcher struct {
	pathExact  string
	pathPrefix string
	pathRegex  *regexp.Regexp
	method     string
	headers    []headerMatcher
	fraction   *runtimeFraction
}

type headerMatcher struct {
	name    string
	exact   string
	present *bool
	regex   *regexp.Regexp
}

// runtimeFraction gates a rule behind a per-10000 threshold read from the
// runtime source. The caller-supplied randomValue keeps the decision stable
// across repeated evaluations of one logical request.
type runtimeFraction struct {
	key string
	def uint64
}

func newRouteMatcher(cfg *config.RouteConfig) (routeMatcher, error) {
	m := routeMatcher{
		pathExact:  cfg.Path,
		pathPrefix: cfg.Prefix,
		method:     strings.ToUpper(cfg.Method),
	}

	if cfg.Regex != "" {
		re, err := regexp.Compile(cfg.Regex)
		if err != nil {
			return routeMatcher{}, err
		}
		m.pathRegex = re
	}

	for _, h := range cfg.Headers {
		hm := headerMatcher{name: h.Name, exact: h.Value, present: h.Present}
		if h.Regex != "" {
			re, err := regexp.Compile(h.Regex)
			if err != nil {
				return routeMatcher{}, err
			}
			hm.regex = re
		}
		m.headers = append(m.headers, hm)
	}

	if cfg.RuntimeFraction != nil {
		m.fraction = &runtimeFraction{
			key: cfg.RuntimeFraction.Key,
			def: cfg.RuntimeFraction.Default,
		}
	}

	return m, nil
}

// matches evaluates the rule against the request. Read-only; safe for
// unlimited concurrent callers.
func (m *routeMatcher) matches(r *http.Request, randomValue uint64, rt Runtime) bool {
	if m.method != "" && r.Method != m.method {
		return false
	}

	path := r.URL.Path
	switch {
	case m.pathExact != "":
		if path != m.pathExact {
			return false
		}
	case m.pathPrefix != "":
		if !strings.HasPrefix(path, m.pathPrefix) {
			return false
		}
	case m.pathRegex != nil:
		if !m.pathRegex.MatchString(path) {
			return false
		}
	}

	for i := range m.headers {
		if !m.headers[i].matches(r.Header) {
			return false
		}
	}

	if m.fraction != nil {
		threshold := m.fraction.def
		if rt != nil && m.fraction.key != "" {
			threshold = rt.Integer(m.fraction.key, m.fraction.def)
		}
		if randomValue%10000 >= threshold {
			return false
		}
	}

	return true
}

func (hm *headerMatcher) matches(h http.Header) bool {
	if hm.present != nil {
		_, has := h[http.CanonicalHeaderKey(hm.name)]
		return has == *hm.present
	}
	val := h.Get(hm.name)
	if hm.exact != "" {
		return val == hm.exact
	}
	if hm.regex != nil {
		return hm.regex.MatchString(val)
	}
	// Name-only matcher: header must exist
	_, has := h[http.CanonicalHeaderKey(hm.name)]
	return has
}
