package fetcher

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"garimpeiro/ofertaworker/helpers"
	"garimpeiro/ofertaworker/pkg/errors"
	"garimpeiro/ofertaworker/services/cache"
)

// Source supplies a fully-rendered document to the extraction pipeline.
// The pipeline itself never touches the network.
type Source interface {
	Fetch() (*goquery.Document, error)
}

// HTTPFetcher fetches the listing page over plain HTTP with browser-like
// headers. When the retailer rate-limits us, a block marker is kept in the
// cache so the next cycles back off without hitting the site.
type HTTPFetcher struct {
	URL       string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// NewHTTPFetcher creates a fetcher for the given listing URL. cacheSvc may
// be nil, which disables rate-limit blocking.
func NewHTTPFetcher(url string, cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		URL:       url,
		CacheKey:  "listing_rate_limited",
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
	}
}

// Fetch downloads and parses the listing page.
func (f *HTTPFetcher) Fetch() (*goquery.Document, error) {
	if f.CacheSvc != nil && f.CacheKey != "" {
		if _, err := f.CacheSvc.Get(f.CacheKey); err == nil {
			return nil, errors.NewRateLimit("fetcher", f.BlockTime)
		}
	}

	body, err := helpers.FetchWithRandomHeaders(f.URL)
	if err != nil {
		if f.CacheSvc != nil && f.CacheKey != "" && strings.HasPrefix(err.Error(), "rate limited") {
			f.CacheSvc.Set(f.CacheKey, []byte("blocked"), f.BlockTime)
		}
		return nil, errors.NewNetwork("fetcher", "fetch listing page", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing("fetcher", "parse listing HTML", err)
	}

	return doc, nil
}
