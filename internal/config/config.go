package config

import "time"

// TableConfig is the root of the already-parsed routing configuration.
// Wire/file format parsing happens in the loader; the router core only ever
// sees a validated TableConfig.
type TableConfig struct {
	VirtualHosts            []VirtualHostConfig `yaml:"virtual_hosts"`
	InternalOnlyHeaders     []string            `yaml:"internal_only_headers"`
	ResponseHeadersToAdd    []HeaderValue       `yaml:"response_headers_to_add"`
	ResponseHeadersToRemove []string            `yaml:"response_headers_to_remove"`
}

// HeaderValue is a single header name/value pair.
type HeaderValue struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// VirtualHostConfig defines a named group of routes sharing domains and
// default policies.
type VirtualHostConfig struct {
	Name            string                 `yaml:"name"`
	Domains         []string               `yaml:"domains"`
	Routes          []RouteConfig          `yaml:"routes"`
	Cors            *CorsConfig            `yaml:"cors"`
	VirtualClusters []VirtualClusterConfig `yaml:"virtual_clusters"`
	RateLimits      string                 `yaml:"rate_limits"` // opaque reference, consumed by the rate limit subsystem
}

// RouteConfig defines a single routing rule. Exactly one of Cluster or
// Redirect must be set, and exactly one of Prefix/Path/Regex.
type RouteConfig struct {
	// Match criteria
	Prefix          string                 `yaml:"prefix"`
	Path            string                 `yaml:"path"`
	Regex           string                 `yaml:"regex"`
	Method          string                 `yaml:"method"`
	Headers         []HeaderMatchConfig    `yaml:"headers"`
	RuntimeFraction *RuntimeFractionConfig `yaml:"runtime_fraction"`

	// Action
	Cluster  string          `yaml:"cluster"`
	Redirect *RedirectConfig `yaml:"redirect"`

	// Forwarding behavior
	Timeout                time.Duration `yaml:"timeout"`
	PrefixRewrite          string        `yaml:"prefix_rewrite"`
	HostRewrite            string        `yaml:"host_rewrite"`
	AutoHostRewrite        bool          `yaml:"auto_host_rewrite"`
	UseWebSocket           bool          `yaml:"use_websocket"`
	Priority               string        `yaml:"priority"` // "default" or "high"
	RequestHeadersToAdd    []HeaderValue `yaml:"request_headers_to_add"`
	RequestHeadersToRemove []string      `yaml:"request_headers_to_remove"`

	// Policies
	RetryPolicy RetryConfig   `yaml:"retry_policy"`
	Shadow      ShadowConfig  `yaml:"shadow"`
	Cors        *CorsConfig   `yaml:"cors"`
	HashPolicy  *HashConfig   `yaml:"hash_policy"`
	Opaque      []HeaderValue `yaml:"opaque_config"` // order preserved, duplicate keys allowed

	IncludeVirtualHostRateLimits bool   `yaml:"include_vh_rate_limits"`
	Decorator                    string `yaml:"decorator"` // tracing operation name
}

// HeaderMatchConfig constrains a request header. Exactly one of Value,
// Present, or Regex applies.
type HeaderMatchConfig struct {
	Name    string `yaml:"name"`
	Value   string `yaml:"value"`
	Present *bool  `yaml:"present"`
	Regex   string `yaml:"regex"`
}

// RuntimeFractionConfig gates a route behind a runtime-driven fraction.
// The rule matches when randomValue % 10000 falls below the threshold read
// from the runtime source under Key (Default when the key is unset).
type RuntimeFractionConfig struct {
	Key     string `yaml:"key"`
	Default uint64 `yaml:"default"` // per-10000
}

// RedirectConfig replies with a redirect instead of forwarding.
type RedirectConfig struct {
	Host string `yaml:"host"`
	Path string `yaml:"path"`
}

// RetryConfig defines the route retry policy. An empty RetryOn list means
// the route never retries.
type RetryConfig struct {
	RetryOn       []string      `yaml:"retry_on"`
	NumRetries    uint32        `yaml:"num_retries"`
	PerTryTimeout time.Duration `yaml:"per_try_timeout"`
}

// ShadowConfig mirrors matching requests to another cluster. An empty
// Cluster disables shadowing; an empty RuntimeKey shadows every request.
type ShadowConfig struct {
	Cluster    string `yaml:"cluster"`
	RuntimeKey string `yaml:"runtime_key"`
}

// CorsConfig defines CORS settings for a route or virtual host.
type CorsConfig struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
	ExposeHeaders    []string `yaml:"expose_headers"`
	MaxAge           int      `yaml:"max_age"` // seconds
	AllowCredentials *bool    `yaml:"allow_credentials"`
	Disabled         bool     `yaml:"disabled"`
}

// HashConfig selects the request attribute hashed for upstream affinity.
type HashConfig struct {
	Header string `yaml:"header"`
}

// VirtualClusterConfig labels requests for stats attribution. Matching is
// by path pattern and optional method; it never affects routing.
type VirtualClusterConfig struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Method  string `yaml:"method"`
}
