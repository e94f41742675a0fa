package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/wudi/routecore/internal/config"
)

// Priority is the resource priority a route's traffic is accounted under.
type Priority int

const (
	PriorityDefault Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "default"
}

func parsePriority(s string) Priority {
	if s == "high" {
		return PriorityHigh
	}
	return PriorityDefault
}

// Retry-on conditions. A route's retry policy carries an OR of these.
const (
	RetryOn5xx uint32 = 0x1 << iota
	RetryOnConnectFailure
	RetryOnRetriable4xx
	RetryOnRefusedStream
	RetryOnGRPCCancelled
	RetryOnGRPCDeadlineExceeded
	RetryOnGRPCResourceExhausted
)

var retryOnTokens = map[string]uint32{
	"5xx":                RetryOn5xx,
	"connect-failure":    RetryOnConnectFailure,
	"retriable-4xx":      RetryOnRetriable4xx,
	"refused-stream":     RetryOnRefusedStream,
	"cancelled":          RetryOnGRPCCancelled,
	"deadline-exceeded":  RetryOnGRPCDeadlineExceeded,
	"resource-exhausted": RetryOnGRPCResourceExhausted,
}

// ParseRetryOn converts a comma-separated condition list to a bitmask.
// Unknown tokens are ignored; config validation rejects them up front, and
// request-header overrides must not make a request unroutable.
func ParseRetryOn(s string) uint32 {
	var mask uint32
	for _, token := range strings.Split(s, ",") {
		mask |= retryOnTokens[strings.TrimSpace(token)]
	}
	return mask
}

// RetryPolicy is the immutable retry policy of one route. Every RouteEntry
// has one; the zero value allows no retries.
type RetryPolicy struct {
	retryOn       uint32
	numRetries    uint32
	perTryTimeout time.Duration
}

// NewRetryPolicy builds a retry policy from config.
func NewRetryPolicy(cfg config.RetryConfig) (RetryPolicy, error) {
	var mask uint32
	for _, token := range cfg.RetryOn {
		bit, ok := retryOnTokens[token]
		if !ok {
			return RetryPolicy{}, fmt.Errorf("unknown retry_on condition %q", token)
		}
		mask |= bit
	}
	return RetryPolicy{
		retryOn:       mask,
		numRetries:    cfg.NumRetries,
		perTryTimeout: cfg.PerTryTimeout,
	}, nil
}

// RetryOn returns the OR of retry-on condition bits.
func (p RetryPolicy) RetryOn() uint32 { return p.retryOn }

// NumRetries returns the number of retries allowed against the route.
func (p RetryPolicy) NumRetries() uint32 { return p.numRetries }

// PerTryTimeout returns the timeout for each attempt. It is communicated to
// the transport layer, not enforced here.
func (p RetryPolicy) PerTryTimeout() time.Duration { return p.perTryTimeout }

// Enabled reports whether the policy allows any retries at all.
func (p RetryPolicy) Enabled() bool { return p.retryOn != 0 }

// ShadowPolicy mirrors matching requests to a second cluster. Every
// RouteEntry has one; an empty cluster name disables shadowing.
type ShadowPolicy struct {
	cluster    string
	runtimeKey string
}

// Cluster returns the shadow cluster name, or "" when shadowing is off.
func (p ShadowPolicy) Cluster() string { return p.cluster }

// RuntimeKey returns the runtime key driving fractional shadowing. An empty
// key shadows every request when a cluster is configured.
func (p ShadowPolicy) RuntimeKey() string { return p.runtimeKey }

// Sample decides whether one request should be shadowed. The runtime value
// under the key is a per-10000 threshold compared against randomValue, so a
// stable randomValue gives a stable decision across retries.
func (p ShadowPolicy) Sample(rt Runtime, randomValue uint64) bool {
	if p.cluster == "" {
		return false
	}
	if p.runtimeKey == "" {
		return true
	}
	var threshold uint64
	if rt != nil {
		threshold = rt.Integer(p.runtimeKey, 0)
	}
	return randomValue%10000 < threshold
}

// CorsPolicy holds the CORS settings of a route or virtual host.
type CorsPolicy struct {
	allowOrigins     []string
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	maxAge           int
	allowCredentials *bool
	enabled          bool
}

func newCorsPolicy(cfg *config.CorsConfig) *CorsPolicy {
	if cfg == nil {
		return nil
	}
	return &CorsPolicy{
		allowOrigins:     append([]string(nil), cfg.AllowOrigins...),
		allowMethods:     strings.Join(cfg.AllowMethods, ","),
		allowHeaders:     strings.Join(cfg.AllowHeaders, ","),
		exposeHeaders:    strings.Join(cfg.ExposeHeaders, ","),
		maxAge:           cfg.MaxAge,
		allowCredentials: cfg.AllowCredentials,
		enabled:          !cfg.Disabled,
	}
}

// Enabled reports whether CORS handling is active for the policy owner.
func (p *CorsPolicy) Enabled() bool { return p.enabled }

// AllowOrigins returns the allowed origin values.
func (p *CorsPolicy) AllowOrigins() []string { return p.allowOrigins }

// AllowMethods returns the access-control-allow-methods value.
func (p *CorsPolicy) AllowMethods() string { return p.allowMethods }

// AllowHeaders returns the access-control-allow-headers value.
func (p *CorsPolicy) AllowHeaders() string { return p.allowHeaders }

// ExposeHeaders returns the access-control-expose-headers value.
func (p *CorsPolicy) ExposeHeaders() string { return p.exposeHeaders }

// MaxAge returns the access-control-max-age value in seconds.
func (p *CorsPolicy) MaxAge() int { return p.maxAge }

// AllowCredentials returns whether credentials are allowed, or nil when the
// config leaves it unset.
func (p *CorsPolicy) AllowCredentials() *bool { return p.allowCredentials }

// AllowsOrigin reports whether the given Origin header value is allowed.
func (p *CorsPolicy) AllowsOrigin(origin string) bool {
	for _, o := range p.allowOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// CorsPolicyFor resolves the effective CORS policy for a route entry:
// the route-level policy when present, otherwise the virtual host's.
func CorsPolicyFor(e *RouteEntry) *CorsPolicy {
	if e.corsPolicy != nil {
		return e.corsPolicy
	}
	return e.VirtualHost().CorsPolicy()
}

// Pair is an ordered key/value element of a route's opaque configuration.
type Pair struct {
	Key   string
	Value string
}
