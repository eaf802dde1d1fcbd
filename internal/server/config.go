package server

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigErrorKind classifies fatal configuration problems.
type ConfigErrorKind string

const (
	ConfigInvalidJSON     ConfigErrorKind = "invalid_json"
	ConfigConflictingAuth ConfigErrorKind = "conflicting_auth"
	ConfigMissingURL      ConfigErrorKind = "missing_url"
)

// ConfigError is a fatal startup error. The process must not reach a
// serving state when one is returned from LoadConfig.
type ConfigError struct {
	Kind    ConfigErrorKind
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Kind, e.Message)
}

func configErrorf(kind ConfigErrorKind, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TenantEntry is one entry of the PROMETHEUS_TENANTS JSON array.
type TenantEntry struct {
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	SSLVerify *bool             `json:"url_ssl_verify,omitempty"`
	Username  string            `json:"username,omitempty"`
	Password  string            `json:"password,omitempty"`
	Token     string            `json:"token,omitempty"`
	OrgID     string            `json:"org_id,omitempty"`
	Headers   map[string]string `json:"custom_headers,omitempty"`
}

// Config holds the complete Prometheus connection configuration. It is
// built once at startup from the environment and never mutated afterwards;
// all components receive it by value or hold a reference to the loaded copy.
type Config struct {
	URL          string
	SSLVerify    bool
	DisableLinks bool

	Username string
	Password string
	Token    string
	OrgID    string

	CustomHeaders  map[string]string
	RequestTimeout time.Duration

	Tenants       []TenantEntry
	DefaultTenant string

	ToolPrefix string
}

// DefaultRequestTimeout bounds every outbound Prometheus call unless
// PROMETHEUS_REQUEST_TIMEOUT overrides it.
const DefaultRequestTimeout = 30 * time.Second

// LoadConfig reads the Prometheus configuration from the environment and
// validates it. Any returned error is a *ConfigError and must abort startup.
//
// Environment variables:
//
//	PROMETHEUS_URL              - backend URL (single-tenant mode)
//	PROMETHEUS_URL_SSL_VERIFY   - verify TLS certificates (default: true)
//	PROMETHEUS_DISABLE_LINKS    - omit Prometheus UI links from results
//	PROMETHEUS_USERNAME         - basic auth username
//	PROMETHEUS_PASSWORD         - basic auth password
//	PROMETHEUS_TOKEN            - bearer token
//	ORG_ID                      - X-Scope-OrgID header value
//	PROMETHEUS_CUSTOM_HEADERS   - JSON object of extra request headers
//	PROMETHEUS_REQUEST_TIMEOUT  - per-call timeout in seconds (default: 30)
//	PROMETHEUS_TENANTS          - JSON array of tenant objects
//	PROMETHEUS_DEFAULT_TENANT   - tenant used when a call names none
//	TOOL_PREFIX                 - optional prefix applied to tool names
func LoadConfig() (*Config, error) {
	cfg := &Config{
		URL:            os.Getenv("PROMETHEUS_URL"),
		SSLVerify:      parseBool(os.Getenv("PROMETHEUS_URL_SSL_VERIFY"), true),
		DisableLinks:   parseBool(os.Getenv("PROMETHEUS_DISABLE_LINKS"), false),
		Username:       os.Getenv("PROMETHEUS_USERNAME"),
		Password:       os.Getenv("PROMETHEUS_PASSWORD"),
		Token:          os.Getenv("PROMETHEUS_TOKEN"),
		OrgID:          os.Getenv("ORG_ID"),
		RequestTimeout: DefaultRequestTimeout,
		DefaultTenant:  os.Getenv("PROMETHEUS_DEFAULT_TENANT"),
		ToolPrefix:     os.Getenv("TOOL_PREFIX"),
	}

	if raw := os.Getenv("PROMETHEUS_REQUEST_TIMEOUT"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, configErrorf(ConfigInvalidJSON, "PROMETHEUS_REQUEST_TIMEOUT must be a positive integer, got %q", raw)
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	if raw := os.Getenv("PROMETHEUS_CUSTOM_HEADERS"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.CustomHeaders); err != nil {
			return nil, configErrorf(ConfigInvalidJSON, "PROMETHEUS_CUSTOM_HEADERS is not a valid JSON object: %v", err)
		}
	}

	if raw := os.Getenv("PROMETHEUS_TENANTS"); raw != "" {
		tenants, err := parseTenants(raw)
		if err != nil {
			return nil, err
		}
		cfg.Tenants = tenants
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTenants decodes the PROMETHEUS_TENANTS JSON array.
func parseTenants(raw string) ([]TenantEntry, error) {
	var entries []TenantEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, configErrorf(ConfigInvalidJSON, "PROMETHEUS_TENANTS is not a valid JSON array: %v", err)
	}
	return entries, nil
}

// Validate enforces the startup invariants: at least one backend, no
// duplicate or nameless tenants, a resolvable default tenant, and at most
// one auth method per endpoint. Token plus basic-auth on the same endpoint
// is rejected rather than silently prioritized.
func (c *Config) Validate() error {
	if c.URL == "" && len(c.Tenants) == 0 {
		return configErrorf(ConfigMissingURL, "neither PROMETHEUS_URL nor PROMETHEUS_TENANTS is set")
	}

	if c.Token != "" && (c.Username != "" || c.Password != "") {
		return configErrorf(ConfigConflictingAuth, "PROMETHEUS_TOKEN and PROMETHEUS_USERNAME/PROMETHEUS_PASSWORD are both set")
	}

	seen := make(map[string]struct{}, len(c.Tenants))
	for i, t := range c.Tenants {
		if t.Name == "" {
			return configErrorf(ConfigInvalidJSON, "PROMETHEUS_TENANTS[%d] requires a 'name'", i)
		}
		if t.URL == "" {
			return configErrorf(ConfigMissingURL, "tenant %q has no 'url'", t.Name)
		}
		if _, dup := seen[t.Name]; dup {
			return configErrorf(ConfigInvalidJSON, "duplicate tenant name %q in PROMETHEUS_TENANTS", t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Token != "" && (t.Username != "" || t.Password != "") {
			return configErrorf(ConfigConflictingAuth, "tenant %q sets both token and username/password", t.Name)
		}
	}

	if c.DefaultTenant != "" {
		if _, ok := seen[c.DefaultTenant]; !ok {
			return configErrorf(ConfigInvalidJSON, "PROMETHEUS_DEFAULT_TENANT %q not found in PROMETHEUS_TENANTS", c.DefaultTenant)
		}
	}

	return nil
}

// MultiTenant reports whether a tenant list is configured.
func (c *Config) MultiTenant() bool {
	return len(c.Tenants) > 0
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
