package router

import (
	"net/http"
	"regexp"
	"strings"
)

// VirtualCluster labels requests within a virtual host for stats
// attribution. It never influences routing or retry outcomes.
type VirtualCluster struct {
	name    string
	pattern *regexp.Regexp
	method  string
}

// Name returns the virtual cluster name used as the stats label.
func (vc *VirtualCluster) Name() string { return vc.name }

// Matches reports whether the request belongs to this virtual cluster.
func (vc *VirtualCluster) Matches(r *http.Request) bool {
	if vc.method != "" && !strings.EqualFold(vc.method, r.Method) {
		return false
	}
	return vc.pattern.MatchString(r.URL.Path)
}
