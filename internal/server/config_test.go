package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearPrometheusEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROMETHEUS_URL", "PROMETHEUS_URL_SSL_VERIFY", "PROMETHEUS_DISABLE_LINKS",
		"PROMETHEUS_USERNAME", "PROMETHEUS_PASSWORD", "PROMETHEUS_TOKEN", "ORG_ID",
		"PROMETHEUS_CUSTOM_HEADERS", "PROMETHEUS_REQUEST_TIMEOUT",
		"PROMETHEUS_TENANTS", "PROMETHEUS_DEFAULT_TENANT", "TOOL_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigSingleTenant(t *testing.T) {
	clearPrometheusEnv(t)
	t.Setenv("PROMETHEUS_URL", "http://localhost:9090")
	t.Setenv("PROMETHEUS_USERNAME", "admin")
	t.Setenv("PROMETHEUS_PASSWORD", "secret")
	t.Setenv("PROMETHEUS_REQUEST_TIMEOUT", "10")
	t.Setenv("PROMETHEUS_CUSTOM_HEADERS", `{"X-Custom": "yes"}`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9090", cfg.URL)
	require.True(t, cfg.SSLVerify)
	require.False(t, cfg.MultiTenant())
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, map[string]string{"X-Custom": "yes"}, cfg.CustomHeaders)
}

func TestLoadConfigDefaults(t *testing.T) {
	clearPrometheusEnv(t)
	t.Setenv("PROMETHEUS_URL", "http://localhost:9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	require.True(t, cfg.SSLVerify)
	require.False(t, cfg.DisableLinks)
	require.Empty(t, cfg.ToolPrefix)
}

func TestLoadConfigMultiTenant(t *testing.T) {
	clearPrometheusEnv(t)
	t.Setenv("PROMETHEUS_TENANTS", `[
		{"name": "a", "url": "http://h1", "token": "tok"},
		{"name": "b", "url": "http://h2", "username": "u", "password": "p", "url_ssl_verify": false}
	]`)
	t.Setenv("PROMETHEUS_DEFAULT_TENANT", "b")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.MultiTenant())
	require.Len(t, cfg.Tenants, 2)
	require.Equal(t, "a", cfg.Tenants[0].Name)
	require.Equal(t, "b", cfg.Tenants[1].Name)
	require.NotNil(t, cfg.Tenants[1].SSLVerify)
	require.False(t, *cfg.Tenants[1].SSLVerify)
	require.Equal(t, "b", cfg.DefaultTenant)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		kind ConfigErrorKind
	}{
		{
			name: "no backend configured",
			env:  map[string]string{},
			kind: ConfigMissingURL,
		},
		{
			name: "malformed tenants JSON",
			env:  map[string]string{"PROMETHEUS_TENANTS": `{"not": "an array"`},
			kind: ConfigInvalidJSON,
		},
		{
			name: "malformed custom headers JSON",
			env: map[string]string{
				"PROMETHEUS_URL":            "http://h",
				"PROMETHEUS_CUSTOM_HEADERS": `not json`,
			},
			kind: ConfigInvalidJSON,
		},
		{
			name: "tenant without url",
			env:  map[string]string{"PROMETHEUS_TENANTS": `[{"name": "a"}]`},
			kind: ConfigMissingURL,
		},
		{
			name: "tenant without name",
			env:  map[string]string{"PROMETHEUS_TENANTS": `[{"url": "http://h"}]`},
			kind: ConfigInvalidJSON,
		},
		{
			name: "duplicate tenant names",
			env: map[string]string{
				"PROMETHEUS_TENANTS": `[{"name": "a", "url": "http://h1"}, {"name": "a", "url": "http://h2"}]`,
			},
			kind: ConfigInvalidJSON,
		},
		{
			name: "conflicting top-level auth",
			env: map[string]string{
				"PROMETHEUS_URL":      "http://h",
				"PROMETHEUS_TOKEN":    "tok",
				"PROMETHEUS_USERNAME": "u",
			},
			kind: ConfigConflictingAuth,
		},
		{
			name: "conflicting tenant auth",
			env: map[string]string{
				"PROMETHEUS_TENANTS": `[{"name": "a", "url": "http://h", "token": "tok", "username": "u", "password": "p"}]`,
			},
			kind: ConfigConflictingAuth,
		},
		{
			name: "default tenant not in list",
			env: map[string]string{
				"PROMETHEUS_TENANTS":        `[{"name": "a", "url": "http://h"}]`,
				"PROMETHEUS_DEFAULT_TENANT": "missing",
			},
			kind: ConfigInvalidJSON,
		},
		{
			name: "non-numeric timeout",
			env: map[string]string{
				"PROMETHEUS_URL":             "http://h",
				"PROMETHEUS_REQUEST_TIMEOUT": "soon",
			},
			kind: ConfigInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPrometheusEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tt.kind, cfgErr.Kind)
		})
	}
}

func TestParseBool(t *testing.T) {
	require.True(t, parseBool("", true))
	require.False(t, parseBool("", false))
	require.True(t, parseBool("True", false))
	require.True(t, parseBool("1", false))
	require.True(t, parseBool("yes", false))
	require.False(t, parseBool("false", true))
	require.False(t, parseBool("0", true))
	require.False(t, parseBool("banana", true))
}
