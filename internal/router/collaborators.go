package router

// Runtime supplies live integer settings (feature fractions, shadow rates)
// from the external runtime/feature-flag source. Implementations must be
// safe for concurrent readers.
type Runtime interface {
	// Integer returns the value stored under key, or defaultValue if the
	// key is unset.
	Integer(key string, defaultValue uint64) uint64
}

// RequestInfo exposes resolved upstream metadata for a request, supplied by
// the connection layer. Read-only to the router.
type RequestInfo interface {
	// UpstreamHost returns the hostname of the chosen upstream instance,
	// or "" if none has been selected yet.
	UpstreamHost() string
}
