package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// InvoiceSummary is the cached reconciliation view of a single invoice
type InvoiceSummary struct {
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	Status           string          `json:"status"`
	Total            decimal.Decimal `json:"total"`
	PaidTotal        decimal.Decimal `json:"paid_total"`
	AmountDue        decimal.Decimal `json:"amount_due"`
	LivePaymentCount int             `json:"live_payment_count"`
	ComputedAt       time.Time       `json:"computed_at"`
}

// InvoiceSummaryCache caches invoice summaries keyed by invoice ID.
// A miss returns (nil, nil).
type InvoiceSummaryCache interface {
	Get(ctx context.Context, invoiceID uuid.UUID) (*InvoiceSummary, error)
	Set(ctx context.Context, summary *InvoiceSummary) error
	Invalidate(ctx context.Context, invoiceIDs ...uuid.UUID) error
}

// RedisInvoiceSummaryCache implements InvoiceSummaryCache using Redis.
// Suitable for distributed deployments where multiple instances share
// the cached view.
type RedisInvoiceSummaryCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisInvoiceSummaryCache creates a new Redis-backed summary cache
func NewRedisInvoiceSummaryCache(cfg RedisConfig, ttl time.Duration) (*RedisInvoiceSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisInvoiceSummaryCacheWithClient(client, "", ttl), nil
}

// NewRedisInvoiceSummaryCacheWithClient creates a cache with an existing
// Redis client. Useful for testing or when sharing a client across components.
func NewRedisInvoiceSummaryCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisInvoiceSummaryCache {
	if keyPrefix == "" {
		keyPrefix = "invoice:summary:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisInvoiceSummaryCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached summary, or (nil, nil) on a miss
func (c *RedisInvoiceSummaryCache) Get(ctx context.Context, invoiceID uuid.UUID) (*InvoiceSummary, error) {
	data, err := c.client.Get(ctx, c.key(invoiceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read invoice summary: %w", err)
	}

	var summary InvoiceSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		// A corrupt entry behaves like a miss so callers recompute it
		return nil, nil
	}
	return &summary, nil
}

// Set stores the summary with the configured TTL
func (c *RedisInvoiceSummaryCache) Set(ctx context.Context, summary *InvoiceSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode invoice summary: %w", err)
	}

	if err := c.client.Set(ctx, c.key(summary.InvoiceID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store invoice summary: %w", err)
	}
	return nil
}

// Invalidate removes cached summaries for the given invoices
func (c *RedisInvoiceSummaryCache) Invalidate(ctx context.Context, invoiceIDs ...uuid.UUID) error {
	if len(invoiceIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		keys = append(keys, c.key(id))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate invoice summaries: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisInvoiceSummaryCache) Close() error {
	return c.client.Close()
}

func (c *RedisInvoiceSummaryCache) key(invoiceID uuid.UUID) string {
	return c.keyPrefix + invoiceID.String()
}

var _ InvoiceSummaryCache = (*RedisInvoiceSummaryCache)(nil)
