// Package cache implements component C6: a Redis-backed, fingerprint-keyed
// cache with adaptive TTL by size class, plus separate namespaces for
// transient job/task status. Grounded on the original service's
// app/services/cache_manager.py (namespaced keys, hit/miss/write/error
// counters), adapted to gomodule/redigo and wrapped with a circuit breaker
// per spec.md §4.6/§4.10. Invalidation deletes individual keys; there is no
// scan-and-delete by namespace prefix.
package cache

import (
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/crlsmrls/lixservice/internal/breaker"
	"github.com/crlsmrls/lixservice/internal/domain"
)

const (
	ttlSmall  = 7200 * time.Second
	ttlMedium = 3600 * time.Second
	ttlLarge  = 1800 * time.Second

	defaultRetries = 2
	opTimeout      = 2 * time.Second

	analysisPrefix   = "analysis:"
	taskStatusPrefix = "task_status:"
	batchJobPrefix   = "batch_job:"
)

// Stats are the cache's hit/miss/write/error counters, exposed to metrics.
type Stats struct {
	Hits   uint64
	Misses uint64
	Writes uint64
	Errors uint64
}

// Cache wraps a redigo pool with adaptive TTL, bounded retry, and a
// breaker; operations degrade silently to a miss on failure per spec §7.
type Cache struct {
	pool    *redis.Pool
	breaker *breaker.Breaker
	retries int

	mu    sync.Mutex
	stats Stats
}

// Config configures the Redis connection pool.
type Config struct {
	Host            string
	Port            string
	DB              int
	Password        string
	MaxIdle         int
	MaxActive       int
	IdleTimeout     time.Duration
	BreakerSettings breaker.Config
}

// New builds a Cache backed by a Redis connection pool.
func New(cfg Config) *Cache {
	if cfg.MaxIdle == 0 {
		cfg.MaxIdle = 8
	}
	if cfg.MaxActive == 0 {
		cfg.MaxActive = 50
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 240 * time.Second
	}

	pool := &redis.Pool{
		MaxIdle:     cfg.MaxIdle,
		MaxActive:   cfg.MaxActive,
		IdleTimeout: cfg.IdleTimeout,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{
				redis.DialDatabase(cfg.DB),
				redis.DialConnectTimeout(opTimeout),
				redis.DialReadTimeout(opTimeout),
				redis.DialWriteTimeout(opTimeout),
			}
			if cfg.Password != "" {
				opts = append(opts, redis.DialPassword(cfg.Password))
			}
			return redis.Dial("tcp", cfg.Host+":"+cfg.Port, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}

	b := cfg.BreakerSettings
	if b.Name == "" {
		b = breaker.DefaultConfig("cache")
	}

	return &Cache{
		pool:    pool,
		breaker: breaker.New(b),
		retries: defaultRetries,
	}
}

// Close releases the underlying pool's connections.
func (c *Cache) Close() error { return c.pool.Close() }

// CircuitState reports the cache breaker's current snapshot, for /health.
func (c *Cache) CircuitState() domain.CircuitState { return c.breaker.Snapshot() }

// HitRatio returns the cache's hit ratio over hits+misses observed so far,
// 0 when nothing has been observed yet.
func (c *Cache) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total)
}

// TTLFor returns the adaptive TTL for a size class.
func TTLFor(class domain.SizeClass) time.Duration {
	switch class {
	case domain.SizeSmall:
		return ttlSmall
	case domain.SizeLarge, domain.SizeHuge:
		return ttlLarge
	default:
		return ttlMedium
	}
}

// GetAnalysis fetches a cached serialized analysis by fingerprint. ok is
// false on both miss and failure (failures degrade silently).
func (c *Cache) GetAnalysis(fingerprint string) (value string, ok bool) {
	return c.get(analysisPrefix + fingerprint)
}

// SetAnalysis stores a serialized analysis under its fingerprint with the
// TTL appropriate to its size class.
func (c *Cache) SetAnalysis(fingerprint string, value string, class domain.SizeClass) {
	c.set(analysisPrefix+fingerprint, value, TTLFor(class))
}

// GetTaskStatus fetches transient job status by id.
func (c *Cache) GetTaskStatus(id string) (string, bool) {
	return c.get(taskStatusPrefix + id)
}

// SetTaskStatus stores transient job status with a fixed short TTL — task
// status is meant to be polled to completion, not to linger.
func (c *Cache) SetTaskStatus(id string, value string) {
	c.set(taskStatusPrefix+id, value, ttlMedium)
}

// GetBatchJob fetches transient batch job state by id.
func (c *Cache) GetBatchJob(id string) (string, bool) {
	return c.get(batchJobPrefix + id)
}

// SetBatchJob stores transient batch job state.
func (c *Cache) SetBatchJob(id string, value string) {
	c.set(batchJobPrefix+id, value, ttlMedium)
}

// Delete removes a single key regardless of namespace.
func (c *Cache) Delete(key string) {
	_, _ = breaker.Do(c.breaker, func() (int, error) {
		return withRetryGeneric(c, func(conn redis.Conn) (int, error) {
			return redis.Int(conn.Do("DEL", key))
		})
	})
}

// PurgeTransient removes the task/batch status markers for the given job
// ids — the ones this replica itself admitted — called on shutdown so a
// draining replica clears only what it owns, leaving other replicas' still
// in-flight markers untouched in the shared keyspace.
func (c *Cache) PurgeTransient(ids []string) {
	for _, id := range ids {
		c.Delete(taskStatusPrefix + id)
		c.Delete(batchJobPrefix + id)
	}
}

type getResult struct {
	value string
	found bool
}

// get treats a Redis nil reply (key absent) as a normal outcome, not a
// breaker failure — a cache miss is not a dependency failure.
func (c *Cache) get(key string) (string, bool) {
	r, err := breaker.Do(c.breaker, func() (getResult, error) {
		v, e := withRetryGeneric(c, func(conn redis.Conn) (string, error) {
			return redis.String(conn.Do("GET", key))
		})
		if e == redis.ErrNil {
			return getResult{found: false}, nil
		}
		if e != nil {
			return getResult{}, e
		}
		return getResult{value: v, found: true}, nil
	})
	if err != nil {
		c.recordError()
		return "", false
	}
	if !r.found {
		c.recordMiss()
		return "", false
	}
	c.recordHit()
	return r.value, true
}

func (c *Cache) set(key, value string, ttl time.Duration) {
	_, err := breaker.Do(c.breaker, func() (string, error) {
		return c.withRetry(func(conn redis.Conn) (string, error) {
			return redis.String(conn.Do("SET", key, value, "EX", int(ttl.Seconds())))
		})
	})
	if err != nil {
		c.recordError()
		return
	}
	c.recordWrite()
}

// withRetryGeneric runs fn against a fresh pooled connection, retrying up to
// c.retries times on transport failure.
func withRetryGeneric[T any](c *Cache, fn func(redis.Conn) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		conn := c.pool.Get()
		v, err := fn(conn)
		conn.Close()
		if err == nil || err == redis.ErrNil {
			return v, err
		}
		lastErr = err
	}
	return zero, lastErr
}

func (c *Cache) withRetry(fn func(redis.Conn) (string, error)) (string, error) {
	return withRetryGeneric(c, fn)
}

// Stats returns a snapshot of the hit/miss/write/error counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

func (c *Cache) recordWrite() {
	c.mu.Lock()
	c.stats.Writes++
	c.mu.Unlock()
}

func (c *Cache) recordError() {
	c.mu.Lock()
	c.stats.Errors++
	c.mu.Unlock()
}
