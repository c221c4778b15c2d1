package publisher

import (
	"context"

	"garimpeiro/ofertaworker/internal/extract"
)

// Publisher renders a Deal into the outbound message payload and delivers
// it. One publish attempt per run; retries belong to the next cycle.
type Publisher interface {
	// Publish sends a single chosen deal.
	Publish(ctx context.Context, deal extract.Deal) error

	// Close closes the underlying connection, if any.
	Close() error
}
