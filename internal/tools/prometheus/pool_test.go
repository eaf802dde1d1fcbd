package prometheus

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/api"
	"github.com/stretchr/testify/require"
)

func TestPoolReusesClientPerTenant(t *testing.T) {
	pool := NewClientPool(30 * time.Second)
	tenant := &TenantConfig{Name: "a", URL: "http://h1", SSLVerify: true}

	first, err := pool.Get(tenant)
	require.NoError(t, err)
	second, err := pool.Get(tenant)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, pool.Size())
}

func TestPoolSeparateClientsPerTenant(t *testing.T) {
	pool := NewClientPool(30 * time.Second)

	a, err := pool.Get(&TenantConfig{Name: "a", URL: "http://h1", SSLVerify: true})
	require.NoError(t, err)
	b, err := pool.Get(&TenantConfig{Name: "b", URL: "http://h2", SSLVerify: true})
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, 2, pool.Size())
}

func TestPoolConcurrentFirstUse(t *testing.T) {
	pool := NewClientPool(30 * time.Second)
	tenant := &TenantConfig{Name: "a", URL: "http://h1", SSLVerify: true}

	const workers = 32
	clients := make([]api.Client, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			client, err := pool.Get(tenant)
			require.NoError(t, err)
			clients[i] = client
		}(i)
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, pool.Size(), "concurrent first use must create exactly one client")
	for i := 1; i < workers; i++ {
		require.Same(t, clients[0], clients[i])
	}
}

func TestPoolInvalidURL(t *testing.T) {
	pool := NewClientPool(30 * time.Second)

	_, err := pool.Get(&TenantConfig{Name: "bad", URL: "://not-a-url", SSLVerify: true})
	require.Error(t, err)
	require.Equal(t, 0, pool.Size(), "failed creation must not leave a pool entry")
}
