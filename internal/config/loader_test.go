package config

import (
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
internal_only_headers:
  - x-internal-debug
response_headers_to_add:
  - name: x-served-by
    value: edge
response_headers_to_remove:
  - x-backend-version
virtual_hosts:
  - name: api
    domains:
      - api.example.com
      - "*.api.example.com"
    virtual_clusters:
      - name: users_write
        pattern: "^/api/users/.*"
        method: POST
    routes:
      - prefix: /api
        cluster: backend
        timeout: 5s
        priority: high
        retry_policy:
          retry_on: ["5xx", "connect-failure"]
          num_retries: 3
          per_try_timeout: 500ms
        shadow:
          cluster: backend-shadow
          runtime_key: shadow.backend
        hash_policy:
          header: x-session-id
      - path: /legacy
        redirect:
          host: legacy.example.com
          path: /new
  - name: fallback
    domains:
      - "*"
    routes:
      - prefix: /
        cluster: default
`

func TestLoaderParse(t *testing.T) {
	cfg, err := NewLoader().Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(cfg.VirtualHosts) != 2 {
		t.Fatalf("expected 2 virtual hosts, got %d", len(cfg.VirtualHosts))
	}

	api := cfg.VirtualHosts[0]
	if api.Name != "api" {
		t.Errorf("expected virtual host name api, got %s", api.Name)
	}
	if len(api.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(api.Routes))
	}

	r0 := api.Routes[0]
	if r0.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", r0.Timeout)
	}
	if r0.RetryPolicy.NumRetries != 3 {
		t.Errorf("expected 3 retries, got %d", r0.RetryPolicy.NumRetries)
	}
	if r0.RetryPolicy.PerTryTimeout != 500*time.Millisecond {
		t.Errorf("expected per-try timeout 500ms, got %v", r0.RetryPolicy.PerTryTimeout)
	}
	if r0.Shadow.Cluster != "backend-shadow" {
		t.Errorf("expected shadow cluster backend-shadow, got %s", r0.Shadow.Cluster)
	}
	if r0.HashPolicy == nil || r0.HashPolicy.Header != "x-session-id" {
		t.Errorf("unexpected hash policy: %+v", r0.HashPolicy)
	}

	r1 := api.Routes[1]
	if r1.Redirect == nil || r1.Redirect.Host != "legacy.example.com" {
		t.Errorf("unexpected redirect: %+v", r1.Redirect)
	}

	if len(cfg.InternalOnlyHeaders) != 1 || cfg.InternalOnlyHeaders[0] != "x-internal-debug" {
		t.Errorf("unexpected internal only headers: %v", cfg.InternalOnlyHeaders)
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() *TableConfig {
		return &TableConfig{
			VirtualHosts: []VirtualHostConfig{{
				Name:    "svc",
				Domains: []string{"svc.example.com"},
				Routes: []RouteConfig{{
					Prefix:  "/api",
					Cluster: "backend",
				}},
			}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*TableConfig)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(*TableConfig) {},
			wantErr: "",
		},
		{
			name: "missing name",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Name = ""
			},
			wantErr: "name is required",
		},
		{
			name: "duplicate virtual host name",
			mutate: func(c *TableConfig) {
				c.VirtualHosts = append(c.VirtualHosts, c.VirtualHosts[0])
				c.VirtualHosts[1].Domains = []string{"other.example.com"}
			},
			wantErr: "duplicate name",
		},
		{
			name: "no domains",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Domains = nil
			},
			wantErr: "at least one domain",
		},
		{
			name: "bad wildcard domain",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Domains = []string{"*example.com"}
			},
			wantErr: "wildcard domain",
		},
		{
			name: "no path matcher",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Prefix = ""
			},
			wantErr: "one of prefix, path, or regex",
		},
		{
			name: "multiple path matchers",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Path = "/exact"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "invalid regex",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Prefix = ""
				c.VirtualHosts[0].Routes[0].Regex = "["
			},
			wantErr: "invalid path regex",
		},
		{
			name: "no action",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Cluster = ""
			},
			wantErr: "either cluster or redirect",
		},
		{
			name: "both cluster and redirect",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Redirect = &RedirectConfig{Host: "x"}
			},
			wantErr: "cluster and redirect are mutually exclusive",
		},
		{
			name: "unknown retry condition",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].RetryPolicy = RetryConfig{
					RetryOn:    []string{"gateway-error"},
					NumRetries: 1,
				}
			},
			wantErr: "unknown retry_on condition",
		},
		{
			name: "retry_on without num_retries",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].RetryPolicy = RetryConfig{
					RetryOn: []string{"5xx"},
				}
			},
			wantErr: "num_retries",
		},
		{
			name: "fraction above 10000",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].RuntimeFraction = &RuntimeFractionConfig{Default: 10001}
			},
			wantErr: "exceeds 10000",
		},
		{
			name: "hash policy without header",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].HashPolicy = &HashConfig{}
			},
			wantErr: "hash policy requires a header",
		},
		{
			name: "invalid priority",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Priority = "urgent"
			},
			wantErr: "invalid priority",
		},
		{
			name: "rewrite on redirect",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Cluster = ""
				c.VirtualHosts[0].Routes[0].Redirect = &RedirectConfig{Host: "x"}
				c.VirtualHosts[0].Routes[0].PrefixRewrite = "/v2"
			},
			wantErr: "rewrites do not apply",
		},
		{
			name: "conflicting host rewrites",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].HostRewrite = "internal"
				c.VirtualHosts[0].Routes[0].AutoHostRewrite = true
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "header matcher with value and regex",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].Routes[0].Headers = []HeaderMatchConfig{
					{Name: "x-env", Value: "prod", Regex: "pr.*"},
				}
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "virtual cluster bad pattern",
			mutate: func(c *TableConfig) {
				c.VirtualHosts[0].VirtualClusters = []VirtualClusterConfig{
					{Name: "vc", Pattern: "["},
				}
			},
			wantErr: "invalid pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
