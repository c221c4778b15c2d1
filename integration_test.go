package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garimpeiro/ofertaworker/internal/extract"
	"garimpeiro/ofertaworker/services/fetcher"
	"garimpeiro/ofertaworker/services/publisher"
	"garimpeiro/ofertaworker/services/store"
	"garimpeiro/ofertaworker/services/worker"
)

// listingHTML mimics the rendered deals page: one clean deal, one below the
// minimum discount, one with a mis-paired original price.
const listingHTML = `<!DOCTYPE html>
<html>
<head><title>Ofertas do Dia</title></head>
<body>
	<div data-testid="grid-deals-container">
		<div>
			<a href="/dp/B0INTEG0001/ref=cm_sw?pf_rd=junk">
				<span class="a-text-normal">Smart TV LED 50 polegadas 4K</span>
			</a>
			<img src="/img/tv.jpg" alt="Smart TV" />
			<span>R$ 2.500,00</span>
			<span>R$ 1.750,00</span>
			<span>30% off</span>
		</div>
		<div>
			<a href="/dp/B0INTEG0002">
				<span class="a-text-normal">Capa protetora para celular</span>
			</a>
			<span>R$ 29,90</span>
			<span>5% off</span>
		</div>
		<div>
			<a href="/dp/B0INTEG0003">
				<span class="a-text-normal">Panela de pressão elétrica 6L</span>
			</a>
			<span>R$ 450,00</span>
			<span>R$ 405,00</span>
			<span>40% off</span>
		</div>
	</div>
</body>
</html>`

func TestFullPipeline(t *testing.T) {
	// Listing page server
	listing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingHTML))
	}))
	defer listing.Close()

	// Webhook endpoint capturing payloads
	var payloads []map[string]interface{}
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		payloads = append(payloads, payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	storePath := filepath.Join(t.TempDir(), "announced.dat")
	announced, err := store.New("file", storePath)
	require.NoError(t, err)
	defer announced.Close()

	pipeline := extract.NewPipeline(extract.Options{
		MinDiscount:  20,
		Tolerance:    15,
		AffiliateTag: "garimpo-20",
	})

	source := fetcher.NewHTTPFetcher(listing.URL, nil, time.Minute)
	pub := publisher.NewWebhookPublisher(webhook.URL, 5*time.Second)
	defer pub.Close()

	w := worker.New(source, pipeline, announced, pub, nil, time.Minute, true)

	// First cycle: the 40% deal wins over the 30% one
	require.NoError(t, w.RunCycle(context.Background()))
	require.Len(t, payloads, 1)

	embeds := payloads[0]["embeds"].([]interface{})
	require.Len(t, embeds, 1)
	first := embeds[0].(map[string]interface{})
	assert.Contains(t, first["title"], "40% OFF")
	assert.Contains(t, first["title"], "Panela de pressão elétrica 6L")
	assert.Equal(t, "https://www.amazon.com.br/dp/B0INTEG0003?tag=garimpo-20", first["url"])

	data, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, "B0INTEG0003\n", string(data))

	// Second cycle: the 40% deal is announced, so the 30% deal is next
	require.NoError(t, w.RunCycle(context.Background()))
	require.Len(t, payloads, 2)

	second := payloads[1]["embeds"].([]interface{})[0].(map[string]interface{})
	assert.Contains(t, second["title"], "30% OFF")
	assert.Contains(t, second["title"], "Smart TV LED 50 polegadas 4K")

	// Third cycle: everything is announced, nothing is published
	require.NoError(t, w.RunCycle(context.Background()))
	assert.Len(t, payloads, 2)
}

func TestFullPipelinePublishFailureKeepsDealEligible(t *testing.T) {
	listing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingHTML))
	}))
	defer listing.Close()

	var failNext bool
	var delivered int
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failNext {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		delivered++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	storePath := filepath.Join(t.TempDir(), "announced.dat")
	announced, err := store.New("file", storePath)
	require.NoError(t, err)
	defer announced.Close()

	pipeline := extract.NewPipeline(extract.Options{MinDiscount: 20})
	source := fetcher.NewHTTPFetcher(listing.URL, nil, time.Minute)
	pub := publisher.NewWebhookPublisher(webhook.URL, 5*time.Second)
	defer pub.Close()

	w := worker.New(source, pipeline, announced, pub, nil, time.Minute, true)

	failNext = true
	require.Error(t, w.RunCycle(context.Background()))

	// nothing was recorded, so the same deal goes out next cycle
	ids, err := announced.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)

	failNext = false
	require.NoError(t, w.RunCycle(context.Background()))
	assert.Equal(t, 1, delivered)

	ids, err = announced.Load()
	require.NoError(t, err)
	assert.Contains(t, ids, "B0INTEG0003")
}
