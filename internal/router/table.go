package router

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wudi/routecore/internal/config"
	"github.com/wudi/routecore/internal/logging"
	"github.com/wudi/routecore/internal/metrics"
)

// Route is the resolved outcome of matching one request: a forwarding entry
// or a redirect, never both, plus an optional trace decorator. Transient
// and immutable; callers may cache it across phases of one request.
type Route struct {
	entry     *RouteEntry
	redirect  *RedirectEntry
	decorator *Decorator
}

// RouteEntry returns the forwarding entry, or nil for redirect routes.
func (r *Route) RouteEntry() *RouteEntry { return r.entry }

// RedirectEntry returns the redirect entry, or nil for forwarding routes.
func (r *Route) RedirectEntry() *RedirectEntry { return r.redirect }

// Decorator returns the trace decorator, or nil if the route has none.
func (r *Route) Decorator() *Decorator { return r.decorator }

// rule pairs a compiled matcher with its resolved action.
type rule struct {
	matcher   routeMatcher
	entry     *RouteEntry
	redirect  *RedirectEntry
	decorator *Decorator
}

type wildcardDomain struct {
	suffix   string // ".example.com" for *.example.com
	vhostIdx int
}

// Table is the top-level routing matcher. Immutable once built; updates
// construct a new Table and swap it through a Snapshot. All methods are
// safe for unlimited concurrent callers.
type Table struct {
	vhosts       []*VirtualHost
	exactDomains map[string]int
	wildcards    []wildcardDomain // longest suffix first
	defaultVHost int              // index, or -1

	internalOnlyHeaders     []string
	responseHeadersToAdd    []Pair
	responseHeadersToRemove []string

	usesRuntime bool
	runtime     Runtime
	collector   *metrics.Collector
}

// NewTable builds a routing table from validated configuration. rt and
// collector may be nil; a nil runtime pins every fraction to its config
// default.
func NewTable(cfg *config.TableConfig, rt Runtime, collector *metrics.Collector) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		exactDomains:            make(map[string]int),
		defaultVHost:            -1,
		internalOnlyHeaders:     append([]string(nil), cfg.InternalOnlyHeaders...),
		responseHeadersToRemove: append([]string(nil), cfg.ResponseHeadersToRemove...),
		runtime:                 rt,
		collector:               collector,
	}
	for _, hv := range cfg.ResponseHeadersToAdd {
		t.responseHeadersToAdd = append(t.responseHeadersToAdd, Pair{Key: hv.Name, Value: hv.Value})
	}

	for i := range cfg.VirtualHosts {
		if err := t.addVirtualHost(&cfg.VirtualHosts[i]); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(t.wildcards, func(i, j int) bool {
		return len(t.wildcards[i].suffix) > len(t.wildcards[j].suffix)
	})

	logging.Debug("routing table built",
		zap.Int("virtual_hosts", len(t.vhosts)),
		zap.Bool("uses_runtime", t.usesRuntime))

	return t, nil
}

func (t *Table) addVirtualHost(cfg *config.VirtualHostConfig) error {
	idx := len(t.vhosts)
	vh := &VirtualHost{
		name:       cfg.Name,
		corsPolicy: newCorsPolicy(cfg.Cors),
		rateLimits: cfg.RateLimits,
	}

	for _, vc := range cfg.VirtualClusters {
		re, err := regexp.Compile(vc.Pattern)
		if err != nil {
			return fmt.Errorf("virtual host %s: virtual cluster %s: %w", cfg.Name, vc.Name, err)
		}
		vh.vclusters = append(vh.vclusters, VirtualCluster{
			name:    vc.Name,
			pattern: re,
			method:  strings.ToUpper(vc.Method),
		})
	}

	for _, domain := range cfg.Domains {
		d := strings.ToLower(domain)
		switch {
		case d == "*":
			if t.defaultVHost != -1 {
				return fmt.Errorf("virtual host %s: duplicate default domain \"*\"", cfg.Name)
			}
			t.defaultVHost = idx
		case strings.HasPrefix(d, "*."):
			t.wildcards = append(t.wildcards, wildcardDomain{suffix: d[1:], vhostIdx: idx})
		default:
			if _, dup := t.exactDomains[d]; dup {
				return fmt.Errorf("virtual host %s: duplicate domain %q", cfg.Name, d)
			}
			t.exactDomains[d] = idx
		}
	}

	t.vhosts = append(t.vhosts, vh)

	for i := range cfg.Routes {
		if err := t.addRule(idx, &cfg.Routes[i]); err != nil {
			return fmt.Errorf("virtual host %s: route %d: %w", cfg.Name, i, err)
		}
	}
	return nil
}

func (t *Table) addRule(vhostIdx int, cfg *config.RouteConfig) error {
	matcher, err := newRouteMatcher(cfg)
	if err != nil {
		return err
	}
	if matcher.fraction != nil {
		t.usesRuntime = true
	}

	ru := rule{matcher: matcher}
	if cfg.Decorator != "" {
		ru.decorator = &Decorator{operation: cfg.Decorator}
	}

	if cfg.Redirect != nil {
		ru.redirect = &RedirectEntry{
			hostRedirect: cfg.Redirect.Host,
			pathRedirect: cfg.Redirect.Path,
		}
		t.vhosts[vhostIdx].rules = append(t.vhosts[vhostIdx].rules, ru)
		return nil
	}

	retryPolicy, err := NewRetryPolicy(cfg.RetryPolicy)
	if err != nil {
		return err
	}
	if cfg.Shadow.RuntimeKey != "" {
		t.usesRuntime = true
	}

	entry := &RouteEntry{
		table:       t,
		vhostIdx:    vhostIdx,
		clusterName: cfg.Cluster,
		timeout:     cfg.Timeout,
		priority:    parsePriority(cfg.Priority),
		retryPolicy: retryPolicy,
		shadowPolicy: ShadowPolicy{
			cluster:    cfg.Shadow.Cluster,
			runtimeKey: cfg.Shadow.RuntimeKey,
		},
		corsPolicy:      newCorsPolicy(cfg.Cors),
		matchedPrefix:   cfg.Prefix,
		prefixRewrite:   cfg.PrefixRewrite,
		hostRewrite:     cfg.HostRewrite,
		autoHostRewrite: cfg.AutoHostRewrite,
		useWebSocket:    cfg.UseWebSocket,
		includeVHLimits: cfg.IncludeVirtualHostRateLimits,
	}
	if entry.matchedPrefix == "" {
		entry.matchedPrefix = cfg.Path
	}
	if cfg.HashPolicy != nil {
		entry.hashPolicy = &HashPolicy{headerName: cfg.HashPolicy.Header}
	}
	for _, hv := range cfg.RequestHeadersToAdd {
		entry.requestHeadersAdd = append(entry.requestHeadersAdd, Pair{Key: hv.Name, Value: hv.Value})
	}
	entry.requestHeadersDel = append([]string(nil), cfg.RequestHeadersToRemove...)
	for _, kv := range cfg.Opaque {
		entry.opaque = append(entry.opaque, Pair{Key: kv.Name, Value: kv.Value})
	}

	ru.entry = entry
	t.vhosts[vhostIdx].rules = append(t.vhosts[vhostIdx].rules, ru)
	return nil
}

// Route resolves the request to a forwarding or redirect route, or nil when
// nothing matches (the caller treats nil as unroutable). randomValue drives
// fractional rule selection: callers must pass the same value for every
// evaluation of one logical request and a fresh value per distinct request.
func (t *Table) Route(r *http.Request, randomValue uint64) *Route {
	vhostIdx := t.findVirtualHost(r.Host)
	if vhostIdx == -1 {
		t.collector.RecordMiss()
		return nil
	}

	vh := t.vhosts[vhostIdx]
	for i := range vh.rules {
		ru := &vh.rules[i]
		if !ru.matcher.matches(r, randomValue, t.runtime) {
			continue
		}
		if ru.redirect != nil {
			t.collector.RecordRedirect()
			return &Route{redirect: ru.redirect, decorator: ru.decorator}
		}
		vcName := ""
		if vc := ru.entry.VirtualCluster(r); vc != nil {
			vcName = vc.Name()
		}
		t.collector.RecordMatch(vh.name, vcName)
		return &Route{entry: ru.entry, decorator: ru.decorator}
	}

	t.collector.RecordMiss()
	return nil
}

// findVirtualHost resolves the authority to a virtual host index, or -1.
// Precedence: exact domain, then longest wildcard suffix, then default.
func (t *Table) findVirtualHost(host string) int {
	if i := strings.LastIndexByte(host, ':'); i != -1 {
		host = host[:i]
	}
	host = strings.ToLower(host)

	if idx, ok := t.exactDomains[host]; ok {
		return idx
	}
	for _, wc := range t.wildcards {
		if strings.HasSuffix(host, wc.suffix) {
			return wc.vhostIdx
		}
	}
	return t.defaultVHost
}

// InternalOnlyHeaders returns the headers stripped from requests that did
// not originate inside the mesh.
func (t *Table) InternalOnlyHeaders() []string { return t.internalOnlyHeaders }

// ResponseHeadersToAdd returns the header pairs added to every response
// that transits the router.
func (t *Table) ResponseHeadersToAdd() []Pair { return t.responseHeadersToAdd }

// ResponseHeadersToRemove returns the upstream headers stripped from every
// response that transits the router.
func (t *Table) ResponseHeadersToRemove() []string { return t.responseHeadersToRemove }

// FinalizeResponseHeaders applies the table-level response header add and
// remove lists. Mutates only the caller-owned header map.
func (t *Table) FinalizeResponseHeaders(h http.Header) {
	for _, name := range t.responseHeadersToRemove {
		h.Del(name)
	}
	for _, p := range t.responseHeadersToAdd {
		h.Add(p.Key, p.Value)
	}
}

// UsesRuntime reports whether any rule consults the runtime source, letting
// callers pick a cheap random source when none does.
func (t *Table) UsesRuntime() bool { return t.usesRuntime }
