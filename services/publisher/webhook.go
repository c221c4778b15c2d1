package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"garimpeiro/ofertaworker/internal/extract"
	"garimpeiro/ofertaworker/pkg/errors"
)

const embedColor = 0xFF4500

// WebhookPublisher posts a deal as a rich embed to a Discord-compatible
// webhook endpoint. Any 2xx response counts as delivered.
type WebhookPublisher struct {
	client *resty.Client
	url    string
}

// NewWebhookPublisher creates a webhook publisher with the given endpoint
// and request timeout.
func NewWebhookPublisher(url string, timeout time.Duration) *WebhookPublisher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &WebhookPublisher{
		client: client,
		url:    url,
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedThumbnail struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string          `json:"title"`
	URL       string          `json:"url,omitempty"`
	Color     int             `json:"color"`
	Fields    []embedField    `json:"fields"`
	Thumbnail *embedThumbnail `json:"thumbnail,omitempty"`
	Footer    embedFooter     `json:"footer"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Publish renders the deal into the embed payload and posts it.
func (p *WebhookPublisher) Publish(ctx context.Context, deal extract.Deal) error {
	payload := buildPayload(deal)

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(p.url)
	if err != nil {
		return errors.NewPublisher("webhook", "post payload", err)
	}
	if resp.IsError() {
		return errors.NewPublisher("webhook",
			fmt.Sprintf("endpoint returned HTTP %d: %s", resp.StatusCode(), bodySnippet(resp.Body())), nil)
	}
	return nil
}

// Close is a no-op for the webhook transport.
func (p *WebhookPublisher) Close() error {
	return nil
}

func buildPayload(deal extract.Deal) webhookPayload {
	e := embed{
		Title: fmt.Sprintf("🔥 %d%% OFF — %s", deal.DiscountPercent, deal.Title),
		URL:   deal.Link,
		Color: embedColor,
		Fields: []embedField{
			{Name: "💰 Preço", Value: priceLine(deal), Inline: true},
			{Name: "📉 Desconto", Value: fmt.Sprintf("%d%%", deal.DiscountPercent), Inline: true},
		},
		Footer: embedFooter{Text: "Garimpeiro de Ofertas • Amazon BR"},
	}

	if deal.ImageURL != "" {
		e.Thumbnail = &embedThumbnail{URL: deal.ImageURL}
	}
	if deal.Link != "" {
		e.Fields = append(e.Fields, embedField{
			Name:  "🔗 Link",
			Value: fmt.Sprintf("[Acessar oferta](%s)", deal.Link),
		})
	}

	return webhookPayload{Embeds: []embed{e}}
}

// priceLine renders "De R$ X por R$ Y" when the original price is known,
// else just the current price.
func priceLine(deal extract.Deal) string {
	if deal.CurrentPrice == nil {
		return "Preço não disponível"
	}
	current := "R$ " + extract.FormatPrice(deal.CurrentPrice.Value)
	if deal.OriginalPrice != nil && !deal.OriginalPrice.Value.Equal(deal.CurrentPrice.Value) {
		return fmt.Sprintf("De R$ %s por %s", extract.FormatPrice(deal.OriginalPrice.Value), current)
	}
	return current
}

func bodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
