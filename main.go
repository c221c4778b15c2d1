package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"garimpeiro/ofertaworker/config"
	"garimpeiro/ofertaworker/internal/extract"
	"garimpeiro/ofertaworker/logger"
	"garimpeiro/ofertaworker/services/cache"
	"garimpeiro/ofertaworker/services/fetcher"
	"garimpeiro/ofertaworker/services/publisher"
	"garimpeiro/ofertaworker/services/store"
	"garimpeiro/ofertaworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("target_url", cfg.TargetURL).
		Int("min_discount", cfg.MinDiscount).
		Bool("run_once", cfg.RunOnce).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	if cfg.AffiliateTag == "" {
		log.Warn().Msg("AFFILIATE_TAG not set; links will be published untagged")
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(&cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	pipeline := extract.NewPipeline(extract.Options{
		BaseURL:         cfg.BaseURL,
		AffiliateTag:    cfg.AffiliateTag,
		MinDiscount:     cfg.MinDiscount,
		Tolerance:       cfg.DiscountTolerance,
		TitleMaxLen:     cfg.TitleMaxLength,
		HighDiscountMin: cfg.HighDiscountMin,
		LowPriceMax:     cfg.LowPriceMax,
	})

	w := worker.New(
		services.Source,
		pipeline,
		services.Store,
		services.Publisher,
		services.Mirror,
		cfg.CrawlInterval,
		cfg.RunOnce,
	)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting deal worker")
		workerDone <- w.Start(ctx)
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Source    fetcher.Source
	Store     store.Store
	Publisher publisher.Publisher
	Mirror    *publisher.StreamMirror
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Store != nil {
		s.Store.Close()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Mirror != nil {
		s.Mirror.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Rate-limit cache is optional
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	services.Source = fetcher.NewHTTPFetcher(cfg.TargetURL, cacheSvc, cfg.FetchBlockTime)

	announcedStore, err := store.New(cfg.StoreBackend, cfg.StorePath)
	if err != nil {
		return nil, err
	}
	services.Store = announcedStore
	logger.Info("Announced store ready (%s: %s)", cfg.StoreBackend, cfg.StorePath)

	services.Publisher = publisher.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookTimeout)

	// Stream mirror is optional
	if cfg.RedisAddr != "" {
		services.Mirror = publisher.NewStreamMirror(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}
