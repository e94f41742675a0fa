package router

// VirtualHost is a named bundle of routing rules sharing domains and
// default policies. Owned exclusively by its Table.
type VirtualHost struct {
	name       string
	corsPolicy *CorsPolicy
	rateLimits string
	vclusters  []VirtualCluster
	rules      []rule
}

// Name returns the virtual host name, unique within its table.
func (vh *VirtualHost) Name() string { return vh.name }

// CorsPolicy returns the virtual host CORS policy, or nil if none.
func (vh *VirtualHost) CorsPolicy() *CorsPolicy { return vh.corsPolicy }

// RateLimits returns the opaque rate limit policy reference consumed by the
// external rate limiting subsystem.
func (vh *VirtualHost) RateLimits() string { return vh.rateLimits }
