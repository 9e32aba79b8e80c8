package serving

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/features"
)

// Cache stores rounded predictions keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64) error
}

const cachePrefix = "mindmeter:prediction:"

// CacheKey identifies a prediction by bundle version and the gender-normalised
// record, so equivalent spellings share an entry and a new bundle never reads
// an old bundle's results.
func CacheKey(bundleVersion string, record models.PatientRecord) (string, error) {
	payload, err := json.Marshal(features.NormalizeRecord(record))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return cachePrefix + bundleVersion + ":" + hex.EncodeToString(sum[:]), nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value float64) error {
	return c.client.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), c.ttl).Err()
}
