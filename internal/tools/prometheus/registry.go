package prometheus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shyoon1991/prometheus-mcp-server/internal/server"
)

// TenantConfig describes one backend endpoint. Instances are built once
// from the loaded configuration and never mutated afterwards.
type TenantConfig struct {
	Name      string
	URL       string
	Auth      AuthConfig
	OrgID     string
	Headers   map[string]string
	SSLVerify bool
}

// TenantSummary is the secret-free view of a tenant returned by
// the list_tenants tool. The URL is only populated on request.
type TenantSummary struct {
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
	AuthMode  string `json:"auth_mode,omitempty"`
	HasAuth   bool   `json:"has_auth"`
	HasOrgID  bool   `json:"has_org_id"`
	SSLVerify bool   `json:"url_ssl_verify"`
}

// Registry resolves tenant selectors to tenant configurations. It is
// populated once at startup and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	tenants     map[string]*TenantConfig
	order       []string
	defaultName string

	// single is set when the registry was built from a top-level URL
	// with no tenant list; selectors are ignored in that mode.
	single *TenantConfig
}

// NewRegistry builds a registry from a validated configuration. In
// multi-tenant mode each entry becomes a named tenant with the base
// custom headers merged under its own (tenant keys win). Without a tenant
// list the top-level URL becomes a single implicit tenant.
func NewRegistry(cfg *server.Config) *Registry {
	if !cfg.MultiTenant() {
		return &Registry{
			single: &TenantConfig{
				Name:      "default",
				URL:       strings.TrimRight(cfg.URL, "/"),
				Auth:      authFromCredentials(cfg.Username, cfg.Password, cfg.Token),
				OrgID:     cfg.OrgID,
				Headers:   cloneHeaders(cfg.CustomHeaders, nil),
				SSLVerify: cfg.SSLVerify,
			},
		}
	}

	r := &Registry{
		tenants:     make(map[string]*TenantConfig, len(cfg.Tenants)),
		order:       make([]string, 0, len(cfg.Tenants)),
		defaultName: cfg.DefaultTenant,
	}
	for _, entry := range cfg.Tenants {
		sslVerify := cfg.SSLVerify
		if entry.SSLVerify != nil {
			sslVerify = *entry.SSLVerify
		}
		orgID := entry.OrgID
		if orgID == "" {
			orgID = cfg.OrgID
		}
		r.tenants[entry.Name] = &TenantConfig{
			Name:      entry.Name,
			URL:       strings.TrimRight(entry.URL, "/"),
			Auth:      authFromCredentials(entry.Username, entry.Password, entry.Token),
			OrgID:     orgID,
			Headers:   cloneHeaders(cfg.CustomHeaders, entry.Headers),
			SSLVerify: sslVerify,
		}
		r.order = append(r.order, entry.Name)
	}
	return r
}

// Resolve maps a tenant selector to exactly one tenant configuration.
//
// In single-tenant mode the selector is ignored and the implicit tenant
// is always returned. Otherwise a non-empty selector requires an exact
// name match; an empty selector falls back to the default tenant, or to
// the sole configured tenant when no default is set.
func (r *Registry) Resolve(selector string) (*TenantConfig, error) {
	if r.single != nil {
		return r.single, nil
	}

	if selector != "" {
		tc, ok := r.tenants[selector]
		if !ok {
			return nil, &ResolutionError{
				Kind:     UnknownTenant,
				Selector: selector,
				Message:  fmt.Sprintf("unknown tenant %q, available tenants: %s", selector, strings.Join(r.sortedNames(), ", ")),
			}
		}
		return tc, nil
	}

	if r.defaultName != "" {
		return r.tenants[r.defaultName], nil
	}
	if len(r.order) == 1 {
		return r.tenants[r.order[0]], nil
	}
	return nil, &ResolutionError{
		Kind:    AmbiguousTenant,
		Message: fmt.Sprintf("no tenant specified and no default configured among %d tenants", len(r.order)),
	}
}

// List returns tenant summaries in configuration order. Credentials are
// never included; URLs only when includeURLs is set.
func (r *Registry) List(includeURLs bool) []TenantSummary {
	if r.single != nil {
		return []TenantSummary{r.single.summary(includeURLs)}
	}
	summaries := make([]TenantSummary, 0, len(r.order))
	for _, name := range r.order {
		summaries = append(summaries, r.tenants[name].summary(includeURLs))
	}
	return summaries
}

// DefaultTenant returns the configured default tenant name, if any.
func (r *Registry) DefaultTenant() string {
	if r.single != nil {
		return r.single.Name
	}
	return r.defaultName
}

// Len returns the number of configured tenants.
func (r *Registry) Len() int {
	if r.single != nil {
		return 1
	}
	return len(r.order)
}

func (r *Registry) sortedNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

func (t *TenantConfig) summary(includeURL bool) TenantSummary {
	s := TenantSummary{
		Name:      t.Name,
		AuthMode:  string(t.Auth.Mode),
		HasAuth:   t.Auth.Mode != AuthNone,
		HasOrgID:  t.OrgID != "",
		SSLVerify: t.SSLVerify,
	}
	if includeURL {
		s.URL = t.URL
	}
	return s
}

// cloneHeaders merges base and override header maps into a fresh map so
// tenants never alias the shared configuration. Override keys win.
func cloneHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
