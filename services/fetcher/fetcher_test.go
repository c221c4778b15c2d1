package fetcher

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "garimpeiro/ofertaworker/pkg/errors"
)

// memoryCache implements cache.CacheService for testing
type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(key string) ([]byte, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return nil, assert.AnError
}

func (m *memoryCache) Set(key string, value []byte, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func TestHTTPFetcherParsesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="DealCard">oferta</div></body></html>`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil, time.Minute)
	doc, err := f.Fetch()
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("div.DealCard").Length())
}

func TestHTTPFetcherSetsBlockOnRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mem := newMemoryCache()
	f := NewHTTPFetcher(server.URL, mem, time.Minute)

	_, err := f.Fetch()
	require.Error(t, err)

	// the block marker is cached, so the next fetch short-circuits
	_, blocked := mem.values[f.CacheKey]
	assert.True(t, blocked)

	_, err = f.Fetch()
	require.Error(t, err)
	var pipeErr *pkgerrors.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, pkgerrors.ErrorTypeRateLimit, pipeErr.Type)
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	f := NewHTTPFetcher("http://127.0.0.1:1", nil, time.Minute)

	_, err := f.Fetch()
	require.Error(t, err)
	var pipeErr *pkgerrors.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, pkgerrors.ErrorTypeNetwork, pipeErr.Type)
	assert.True(t, pipeErr.IsRetryable())
}
