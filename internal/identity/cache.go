package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
)

var tracer = otel.Tracer("sarah-booking/identity")

// defaultCacheTTL keeps customer lookups warm across the several webhook
// calls a single phone conversation produces.
const defaultCacheTTL = 5 * time.Minute

// Cache is a short-lived Redis cache of phone -> customer lookups.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a lookup cache. A zero ttl uses the 5-minute default.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(phone string) string {
	return fmt.Sprintf("customer:phone:%s", phone)
}

// Get returns the cached customer for a normalized phone number, or nil on a
// miss. Redis errors surface so the caller can decide to fall through.
func (c *Cache) Get(ctx context.Context, phone string) (*servicetitan.Customer, error) {
	ctx, span := tracer.Start(ctx, "identity.cache.get")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", c.key(phone)))

	data, err := c.client.Get(ctx, c.key(phone)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("identity: cache get: %w", err)
	}

	var customer servicetitan.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("identity: cache decode: %w", err)
	}
	return &customer, nil
}

// Set stores a customer under its normalized phone number for the cache TTL.
func (c *Cache) Set(ctx context.Context, phone string, customer *servicetitan.Customer) error {
	ctx, span := tracer.Start(ctx, "identity.cache.set")
	defer span.End()

	data, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("identity: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(phone), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("identity: cache set: %w", err)
	}
	return nil
}
