package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garimpeiro/ofertaworker/internal/extract"
)

func TestStreamMirrorPublishBatch(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	const stream = "test_ofertas_mirror"
	client.Del(ctx, stream)

	mirror := NewStreamMirror("localhost:6379", 0, stream, 100)
	defer mirror.Close()

	deals := []extract.Deal{testDeal(t)}
	require.NoError(t, mirror.PublishBatch(ctx, deals))

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	encoded, ok := entries[0].Values["b64_deal"].(string)
	require.True(t, ok)

	data, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var got extract.Deal
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "B0ABC12345", got.ID)
	assert.Equal(t, 30, got.DiscountPercent)

	client.Del(ctx, stream)
}
