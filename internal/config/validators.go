package config

import (
	"fmt"
	"regexp"
	"strings"
)

var validRetryOn = map[string]bool{
	"5xx":                true,
	"connect-failure":    true,
	"retriable-4xx":      true,
	"refused-stream":     true,
	"cancelled":          true,
	"deadline-exceeded":  true,
	"resource-exhausted": true,
}

var validHTTPMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true,
	"DELETE": true, "PATCH": true, "OPTIONS": true, "CONNECT": true, "TRACE": true,
}

// Validate checks the configuration for structural errors. The routing table
// builder assumes a validated config and does not re-check per request.
func (c *TableConfig) Validate() error {
	seen := make(map[string]bool, len(c.VirtualHosts))
	for i := range c.VirtualHosts {
		vh := &c.VirtualHosts[i]
		if vh.Name == "" {
			return fmt.Errorf("virtual host %d: name is required", i)
		}
		if seen[vh.Name] {
			return fmt.Errorf("virtual host %s: duplicate name", vh.Name)
		}
		seen[vh.Name] = true
		if err := vh.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (vh *VirtualHostConfig) validate() error {
	if len(vh.Domains) == 0 {
		return fmt.Errorf("virtual host %s: at least one domain is required", vh.Name)
	}
	for _, d := range vh.Domains {
		if d == "" {
			return fmt.Errorf("virtual host %s: empty domain", vh.Name)
		}
		if strings.HasPrefix(d, "*") && d != "*" && !strings.HasPrefix(d, "*.") {
			return fmt.Errorf("virtual host %s: wildcard domain %q must be \"*\" or \"*.suffix\"", vh.Name, d)
		}
	}
	for _, vc := range vh.VirtualClusters {
		if vc.Name == "" {
			return fmt.Errorf("virtual host %s: virtual cluster name is required", vh.Name)
		}
		if vc.Pattern == "" {
			return fmt.Errorf("virtual host %s: virtual cluster %s: pattern is required", vh.Name, vc.Name)
		}
		if _, err := regexp.Compile(vc.Pattern); err != nil {
			return fmt.Errorf("virtual host %s: virtual cluster %s: invalid pattern: %w", vh.Name, vc.Name, err)
		}
	}
	for i := range vh.Routes {
		if err := vh.Routes[i].validate(vh.Name, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *RouteConfig) validate(vhName string, idx int) error {
	scope := fmt.Sprintf("virtual host %s: route %d", vhName, idx)

	matchers := 0
	for _, m := range []string{r.Prefix, r.Path, r.Regex} {
		if m != "" {
			matchers++
		}
	}
	if matchers == 0 {
		return fmt.Errorf("%s: one of prefix, path, or regex is required", scope)
	}
	if matchers > 1 {
		return fmt.Errorf("%s: prefix, path, and regex are mutually exclusive", scope)
	}
	if r.Regex != "" {
		if _, err := regexp.Compile(r.Regex); err != nil {
			return fmt.Errorf("%s: invalid path regex: %w", scope, err)
		}
	}

	if r.Cluster == "" && r.Redirect == nil {
		return fmt.Errorf("%s: either cluster or redirect is required", scope)
	}
	if r.Cluster != "" && r.Redirect != nil {
		return fmt.Errorf("%s: cluster and redirect are mutually exclusive", scope)
	}
	if r.Redirect != nil && r.Redirect.Host == "" && r.Redirect.Path == "" {
		return fmt.Errorf("%s: redirect requires host or path", scope)
	}

	if r.Method != "" && !validHTTPMethods[strings.ToUpper(r.Method)] {
		return fmt.Errorf("%s: invalid method %q", scope, r.Method)
	}

	for _, h := range r.Headers {
		if h.Name == "" {
			return fmt.Errorf("%s: header matcher name is required", scope)
		}
		set := 0
		if h.Value != "" {
			set++
		}
		if h.Present != nil {
			set++
		}
		if h.Regex != "" {
			set++
			if _, err := regexp.Compile(h.Regex); err != nil {
				return fmt.Errorf("%s: header %s: invalid regex: %w", scope, h.Name, err)
			}
		}
		if set > 1 {
			return fmt.Errorf("%s: header %s: value, present, and regex are mutually exclusive", scope, h.Name)
		}
	}

	if r.RuntimeFraction != nil && r.RuntimeFraction.Default > 10000 {
		return fmt.Errorf("%s: runtime fraction default %d exceeds 10000", scope, r.RuntimeFraction.Default)
	}

	for _, token := range r.RetryPolicy.RetryOn {
		if !validRetryOn[token] {
			return fmt.Errorf("%s: unknown retry_on condition %q", scope, token)
		}
	}
	if len(r.RetryPolicy.RetryOn) > 0 && r.RetryPolicy.NumRetries == 0 {
		return fmt.Errorf("%s: retry_on requires num_retries > 0", scope)
	}

	if r.HashPolicy != nil && r.HashPolicy.Header == "" {
		return fmt.Errorf("%s: hash policy requires a header name", scope)
	}

	if r.Priority != "" && r.Priority != "default" && r.Priority != "high" {
		return fmt.Errorf("%s: invalid priority %q", scope, r.Priority)
	}

	if r.Redirect != nil {
		if r.PrefixRewrite != "" || r.HostRewrite != "" || r.AutoHostRewrite {
			return fmt.Errorf("%s: rewrites do not apply to redirect routes", scope)
		}
	}
	if r.PrefixRewrite != "" && r.Prefix == "" && r.Path == "" {
		return fmt.Errorf("%s: prefix_rewrite requires a prefix or path matcher", scope)
	}
	if r.HostRewrite != "" && r.AutoHostRewrite {
		return fmt.Errorf("%s: host_rewrite and auto_host_rewrite are mutually exclusive", scope)
	}

	return nil
}
