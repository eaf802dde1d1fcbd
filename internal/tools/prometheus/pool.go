package prometheus

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/api"
	"golang.org/x/sync/singleflight"
)

// ClientPool hands out one connection-pooled API client per tenant.
// Clients are created lazily on first use and live for the process
// lifetime; the tenant set is operator-configured and small, so there is
// no eviction. First-use creation is serialized per tenant name with a
// singleflight group rather than a pool-wide lock, so a slow client build
// for one tenant never stalls calls to another.
type ClientPool struct {
	timeout time.Duration

	mu      sync.RWMutex
	clients map[string]api.Client
	group   singleflight.Group
}

// NewClientPool creates an empty pool. The timeout applies uniformly to
// every client as the outer HTTP deadline.
func NewClientPool(timeout time.Duration) *ClientPool {
	return &ClientPool{
		timeout: timeout,
		clients: make(map[string]api.Client),
	}
}

// Get returns the shared client for the tenant, creating it on first use.
// Concurrent first calls for the same tenant produce exactly one client.
func (p *ClientPool) Get(tenant *TenantConfig) (api.Client, error) {
	p.mu.RLock()
	client, ok := p.clients[tenant.Name]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := p.group.Do(tenant.Name, func() (interface{}, error) {
		p.mu.RLock()
		existing, ok := p.clients[tenant.Name]
		p.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := newTenantClient(tenant, p.timeout)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.clients[tenant.Name] = created
		p.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client for tenant %q: %w", tenant.Name, err)
	}
	return v.(api.Client), nil
}

// Size returns the number of instantiated clients.
func (p *ClientPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// newTenantClient builds the per-tenant HTTP stack: a dedicated transport
// honoring the tenant's TLS policy, wrapped with the custom-header, org-ID
// and auth round-trippers, inside a client enforcing the shared timeout.
func newTenantClient(tenant *TenantConfig, timeout time.Duration) (api.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !tenant.SSLVerify {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	var roundTripper http.RoundTripper = transport
	roundTripper = tenant.Auth.roundTripper(roundTripper)
	if tenant.OrgID != "" {
		roundTripper = &orgIDRoundTripper{orgID: tenant.OrgID, rt: roundTripper}
	}
	if len(tenant.Headers) > 0 {
		roundTripper = &headerRoundTripper{headers: tenant.Headers, rt: roundTripper}
	}

	return api.NewClient(api.Config{
		Address: tenant.URL,
		Client: &http.Client{
			Transport: roundTripper,
			Timeout:   timeout,
		},
	})
}
