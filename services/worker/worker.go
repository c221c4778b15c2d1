package worker

import (
	"context"
	"time"

	"garimpeiro/ofertaworker/internal/extract"
	"garimpeiro/ofertaworker/logger"
	"garimpeiro/ofertaworker/services/fetcher"
	"garimpeiro/ofertaworker/services/publisher"
	"garimpeiro/ofertaworker/services/store"
)

// Worker runs the extraction-and-announcement pipeline on a schedule. One
// cycle is: fetch the rendered listing, extract deals, mirror the batch,
// pick the best unannounced deal, publish it, record its id.
type Worker struct {
	source    fetcher.Source
	pipeline  *extract.Pipeline
	announced store.Store
	publisher publisher.Publisher
	mirror    *publisher.StreamMirror // optional, may be nil
	interval  time.Duration
	runOnce   bool
	log       *logger.Logger
}

// New creates a worker. mirror may be nil to disable the stream mirror.
func New(
	source fetcher.Source,
	pipeline *extract.Pipeline,
	announced store.Store,
	pub publisher.Publisher,
	mirror *publisher.StreamMirror,
	interval time.Duration,
	runOnce bool,
) *Worker {
	return &Worker{
		source:    source,
		pipeline:  pipeline,
		announced: announced,
		publisher: pub,
		mirror:    mirror,
		interval:  interval,
		runOnce:   runOnce,
		log:       logger.ForWorker(),
	}
}

// Start runs cycles until the context is cancelled. In run-once mode a
// single cycle is executed and its error returned; the scheduler is
// expected to re-invoke the process.
func (w *Worker) Start(ctx context.Context) error {
	if w.runOnce {
		return w.RunCycle(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunCycle(ctx); err != nil {
			w.log.Error().Err(err).Msg("Cycle failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle executes one full pipeline pass. Finding nothing publishable is
// a normal outcome, not an error.
func (w *Worker) RunCycle(ctx context.Context) error {
	start := time.Now()

	doc, err := w.source.Fetch()
	if err != nil {
		return err
	}

	deals, stats := w.pipeline.Run(doc)

	skipFields := logger.Fields{}
	for reason, count := range stats.Skipped {
		skipFields[reason.String()] = count
	}
	w.log.Info().
		Str("strategy", stats.Strategy).
		Int("cards", stats.Cards).
		Int("deals", stats.Deals).
		Fields(map[string]interface{}(skipFields)).
		Msg("Extraction pass complete")

	if w.mirror != nil && len(deals) > 0 {
		if err := w.mirror.PublishBatch(ctx, deals); err != nil {
			// mirror failures never block the announcement
			w.log.Warn().Err(err).Msg("Stream mirror failed")
		}
	}

	if len(deals) == 0 {
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Zero deals this run")
		return nil
	}

	announced, err := w.announced.Load()
	if err != nil {
		return err
	}

	chosen := extract.SelectDeal(deals, announced)
	if chosen == nil {
		w.log.Info().Int("deals", len(deals)).Msg("All deals already announced")
		return nil
	}

	w.log.Info().
		Str("id", chosen.ID).
		Str("id_quality", string(chosen.IDQuality)).
		Str("title", chosen.Title).
		Int("discount", chosen.DiscountPercent).
		Msg("Publishing best deal")

	if err := w.publisher.Publish(ctx, *chosen); err != nil {
		// append is skipped so the same deal stays eligible next run
		return err
	}

	if err := w.announced.Append(chosen.ID); err != nil {
		// published but not recorded: the deal may be republished next
		// run, which is accepted as safe
		w.log.Warn().Err(err).Str("id", chosen.ID).Msg("Failed to record announced id")
	}

	w.log.Info().Dur("elapsed", time.Since(start)).Msg("Cycle complete")
	return nil
}
