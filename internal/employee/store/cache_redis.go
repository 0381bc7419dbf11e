package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"empverify/internal/employee/models"
	"empverify/pkg/platform/circuit"
)

const cacheKeyPrefix = "empverify:employee:"

// Primary is the authoritative record store behind the cache.
type Primary interface {
	FindByID(ctx context.Context, employeeID string) (*models.Record, error)
	Upsert(ctx context.Context, record *models.Record) error
}

// CachedStore is a read-through Redis cache in front of a Primary. Redis
// errors never fail a read: they trip the breaker and the primary answers.
type CachedStore struct {
	primary Primary
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedStore) {
		c.breaker = b
	}
}

func NewCachedStore(primary Primary, client redis.UniversalClient, ttl time.Duration, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		primary: primary,
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("employee-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(employeeID string) string {
	return cacheKeyPrefix + employeeID
}

func (c *CachedStore) FindByID(ctx context.Context, employeeID string) (*models.Record, error) {
	if c.breaker.Allow() {
		raw, err := c.client.Get(ctx, cacheKey(employeeID)).Bytes()
		switch {
		case err == nil:
			c.recordSuccess(ctx)
			var rec models.Record
			if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
				return &rec, nil
			}
			c.logger.WarnContext(ctx, "discarding corrupt employee cache entry", "employee_id", employeeID)
		case errors.Is(err, redis.Nil):
			c.recordSuccess(ctx)
		default:
			c.recordFailure(ctx, err)
		}
	}

	rec, err := c.primary.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, rec)
	return rec, nil
}

// Upsert writes through to the primary and drops the cached copy.
func (c *CachedStore) Upsert(ctx context.Context, record *models.Record) error {
	if err := c.primary.Upsert(ctx, record); err != nil {
		return err
	}
	if c.breaker.Allow() {
		if err := c.client.Del(ctx, cacheKey(record.EmployeeID)).Err(); err != nil {
			c.recordFailure(ctx, err)
		} else {
			c.recordSuccess(ctx)
		}
	}
	return nil
}

func (c *CachedStore) fill(ctx context.Context, rec *models.Record) {
	if c.breaker.IsOpen() {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(rec.EmployeeID), payload, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
	}
}

func (c *CachedStore) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "employee cache circuit opened", "breaker", c.breaker.Name(), "error", err)
	}
}

func (c *CachedStore) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "employee cache circuit closed", "breaker", c.breaker.Name())
	}
}
