package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://www.amazon.com.br/ofertas", config.TargetURL)
	assert.Equal(t, "https://www.amazon.com.br", config.BaseURL)
	assert.Equal(t, 20, config.MinDiscount)
	assert.Equal(t, 15, config.DiscountTolerance)
	assert.Equal(t, 200, config.TitleMaxLength)
	assert.Equal(t, 80, config.HighDiscountMin)
	assert.True(t, config.LowPriceMax.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "file", config.StoreBackend)
	assert.Equal(t, "./data/announced.dat", config.StorePath)
	assert.Equal(t, 1800*time.Second, config.CrawlInterval)
	assert.False(t, config.RunOnce)
	assert.Equal(t, "development", config.Environment)

	// Test with environment variables
	os.Setenv("WEBHOOK_URL", "https://discord.example/api/webhooks/1/abc")
	os.Setenv("AFFILIATE_TAG", "garimpo-20")
	os.Setenv("MIN_DISCOUNT", "35")
	os.Setenv("DISCOUNT_TOLERANCE", "10")
	os.Setenv("STORE_BACKEND", "bbolt")
	os.Setenv("CRAWL_INTERVAL_SECONDS", "60")
	os.Setenv("RUN_ONCE", "true")

	config = LoadConfig()
	assert.Equal(t, "https://discord.example/api/webhooks/1/abc", config.WebhookURL)
	assert.Equal(t, "garimpo-20", config.AffiliateTag)
	assert.Equal(t, 35, config.MinDiscount)
	assert.Equal(t, 10, config.DiscountTolerance)
	assert.Equal(t, "bbolt", config.StoreBackend)
	assert.Equal(t, 60*time.Second, config.CrawlInterval)
	assert.True(t, config.RunOnce)

	// Clean up
	os.Unsetenv("WEBHOOK_URL")
	os.Unsetenv("AFFILIATE_TAG")
	os.Unsetenv("MIN_DISCOUNT")
	os.Unsetenv("DISCOUNT_TOLERANCE")
	os.Unsetenv("STORE_BACKEND")
	os.Unsetenv("CRAWL_INTERVAL_SECONDS")
	os.Unsetenv("RUN_ONCE")
}

func TestValidate(t *testing.T) {
	valid := Config{
		WebhookURL:    "https://discord.example/api/webhooks/1/abc",
		MinDiscount:   20,
		StoreBackend:  "file",
		CrawlInterval: time.Minute,
	}
	assert.NoError(t, valid.Validate())

	// webhook endpoint is a fatal precondition
	noWebhook := valid
	noWebhook.WebhookURL = ""
	assert.Error(t, noWebhook.Validate())

	badDiscount := valid
	badDiscount.MinDiscount = 150
	assert.Error(t, badDiscount.Validate())

	badTolerance := valid
	badTolerance.DiscountTolerance = -1
	assert.Error(t, badTolerance.Validate())

	badBackend := valid
	badBackend.StoreBackend = "mysql"
	assert.Error(t, badBackend.Validate())

	badInterval := valid
	badInterval.CrawlInterval = 0
	assert.Error(t, badInterval.Validate())
}
