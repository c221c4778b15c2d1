package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"garimpeiro/ofertaworker/pkg/errors"
)

// Config represents the application configuration. It is loaded once at
// startup and passed into each component; nothing reads the environment
// after that.
type Config struct {
	// Webhook publisher
	WebhookURL     string
	WebhookTimeout time.Duration

	// Affiliate tagging; empty means links go out untagged
	AffiliateTag string

	// Listing page
	TargetURL string
	BaseURL   string

	// Extraction thresholds
	MinDiscount       int
	DiscountTolerance int
	TitleMaxLength    int
	HighDiscountMin   int
	LowPriceMax       decimal.Decimal

	// Announced-id store
	StoreBackend string // "file" or "bbolt"
	StorePath    string

	// Rate-limit cache; empty address disables blocking
	MemcacheAddr   string
	FetchBlockTime time.Duration

	// Optional Redis stream mirror of the extraction batch
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Scheduling
	CrawlInterval time.Duration
	RunOnce       bool

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	minDiscount, _ := strconv.Atoi(getEnv("MIN_DISCOUNT", "20"))
	tolerance, _ := strconv.Atoi(getEnv("DISCOUNT_TOLERANCE", "15"))
	titleMax, _ := strconv.Atoi(getEnv("TITLE_MAX_LENGTH", "200"))
	highDiscount, _ := strconv.Atoi(getEnv("HIGH_DISCOUNT_MIN", "80"))
	lowPriceMax, err := decimal.NewFromString(getEnv("LOW_PRICE_MAX", "20"))
	if err != nil {
		lowPriceMax = decimal.NewFromInt(20)
	}
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "1800"))
	blockTime, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "300"))
	webhookTimeout, _ := strconv.Atoi(getEnv("WEBHOOK_TIMEOUT_SECONDS", "15"))
	runOnce, _ := strconv.ParseBool(getEnv("RUN_ONCE", "false"))

	return Config{
		WebhookURL:           os.Getenv("WEBHOOK_URL"),
		WebhookTimeout:       time.Duration(webhookTimeout) * time.Second,
		AffiliateTag:         os.Getenv("AFFILIATE_TAG"),
		TargetURL:            getEnv("TARGET_URL", "https://www.amazon.com.br/ofertas"),
		BaseURL:              getEnv("BASE_URL", "https://www.amazon.com.br"),
		MinDiscount:          minDiscount,
		DiscountTolerance:    tolerance,
		TitleMaxLength:       titleMax,
		HighDiscountMin:      highDiscount,
		LowPriceMax:          lowPriceMax,
		StoreBackend:         getEnv("STORE_BACKEND", "file"),
		StorePath:            getEnv("STORE_PATH", "./data/announced.dat"),
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		FetchBlockTime:       time.Duration(blockTime) * time.Second,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "ofertas"),
		RedisStreamMaxLength: streamMaxLen,
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		RunOnce:              runOnce,
		Environment:          getEnv("OFERTA_ENVIRONMENT", "development"),
	}
}

// Validate checks the preconditions for running the pipeline. A missing
// webhook endpoint is fatal; a missing affiliate tag only degrades links.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return errors.NewConfiguration("WEBHOOK_URL is required", nil)
	}
	if c.MinDiscount < 0 || c.MinDiscount > 100 {
		return errors.NewConfiguration("MIN_DISCOUNT must be between 0 and 100", nil)
	}
	if c.DiscountTolerance < 0 {
		return errors.NewConfiguration("DISCOUNT_TOLERANCE must not be negative", nil)
	}
	if c.StoreBackend != "file" && c.StoreBackend != "bbolt" {
		return errors.NewConfiguration("STORE_BACKEND must be \"file\" or \"bbolt\"", nil)
	}
	if c.CrawlInterval <= 0 {
		return errors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
