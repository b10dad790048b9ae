package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QuotaStatus is a point-in-time view of the email counter.
type QuotaStatus struct {
	Used      int64      `json:"used"`
	Limit     int64      `json:"limit"`
	Remaining int64      `json:"remaining"`
	ResetsAt  *time.Time `json:"resets_at,omitempty"`
}

// Reservation is one unit taken by Reserve. Releasing it only gives the unit
// back to the window it was taken from.
type Reservation struct {
	Granted bool

	epoch      uint64
	generation string
}

// EmailQuota caps the number of relayed contact emails. Without a window the
// count lives for the whole process and only Reset brings it back to zero.
type EmailQuota interface {
	// Exhausted reports whether no further email may be sent.
	Exhausted(ctx context.Context) (bool, error)
	// Reserve atomically takes one unit if the limit allows it.
	Reserve(ctx context.Context) (Reservation, error)
	// Release gives back a unit taken by Reserve after a failed send. It is a
	// no-op once the window rolled over or the count was reset.
	Release(ctx context.Context, r Reservation) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) (QuotaStatus, error)
}

type memoryQuota struct {
	limit  int64
	window time.Duration
	now    func() time.Time

	mu          sync.Mutex
	used        int64
	windowStart time.Time
	// epoch advances on every rollover and reset.
	epoch uint64
}

// NewMemoryQuota keeps the counter in process memory.
func NewMemoryQuota(limit int, window time.Duration) EmailQuota {
	return newMemoryQuota(limit, window, time.Now)
}

func newMemoryQuota(limit int, window time.Duration, now func() time.Time) *memoryQuota {
	return &memoryQuota{
		limit:       int64(limit),
		window:      window,
		now:         now,
		windowStart: now(),
	}
}

// rollLocked starts a fresh window once the current one has elapsed.
func (q *memoryQuota) rollLocked() {
	if q.window <= 0 {
		return
	}
	now := q.now()
	if now.Sub(q.windowStart) >= q.window {
		q.used = 0
		q.windowStart = now
		q.epoch++
	}
}

func (q *memoryQuota) Exhausted(ctx context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	return q.used >= q.limit, nil
}

func (q *memoryQuota) Reserve(ctx context.Context) (Reservation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	if q.used >= q.limit {
		return Reservation{}, nil
	}
	q.used++
	return Reservation{Granted: true, epoch: q.epoch}, nil
}

func (q *memoryQuota) Release(ctx context.Context, r Reservation) error {
	if !r.Granted {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	if r.epoch != q.epoch {
		return nil
	}
	if q.used > 0 {
		q.used--
	}
	return nil
}

func (q *memoryQuota) Reset(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used = 0
	q.windowStart = q.now()
	q.epoch++
	return nil
}

func (q *memoryQuota) Status(ctx context.Context) (QuotaStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()

	status := QuotaStatus{
		Used:      q.used,
		Limit:     q.limit,
		Remaining: max(q.limit-q.used, 0),
	}
	if q.window > 0 {
		resetsAt := q.windowStart.Add(q.window)
		status.ResetsAt = &resetsAt
	}
	return status, nil
}

// The counter is a hash holding "count" and "gen". A fresh key (first unit,
// after expiry or after a reset) gets a new generation.
const emailQuotaKey = "portfolio:email_quota"

// reserveScript increments the count only while it is below the limit, arms
// the window expiry on a fresh key and returns the key's generation. An empty
// reply means the limit is reached.
var reserveScript = redis.NewScript(`
	local used = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
	local limit = tonumber(ARGV[1])
	local ttl = tonumber(ARGV[2])

	if used >= limit then
		return ''
	end

	if redis.call('EXISTS', KEYS[1]) == 0 then
		redis.call('HSET', KEYS[1], 'gen', ARGV[3])
		if ttl > 0 then
			redis.call('EXPIRE', KEYS[1], ttl)
		end
	end

	redis.call('HINCRBY', KEYS[1], 'count', 1)
	return redis.call('HGET', KEYS[1], 'gen')
`)

// releaseScript decrements the count without going below zero, and only
// while the key still belongs to the reserving generation.
var releaseScript = redis.NewScript(`
	if redis.call('HGET', KEYS[1], 'gen') ~= ARGV[1] then
		return 0
	end
	local used = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
	if used > 0 then
		return redis.call('HINCRBY', KEYS[1], 'count', -1)
	end
	return 0
`)

type redisQuota struct {
	client *redis.Client
	key    string
	limit  int64
	window time.Duration
	newGen func() string
}

// NewRedisQuota shares the counter between every process using the same Redis.
func NewRedisQuota(client *redis.Client, limit int, window time.Duration) EmailQuota {
	return &redisQuota{
		client: client,
		key:    emailQuotaKey,
		limit:  int64(limit),
		window: window,
		newGen: uuid.NewString,
	}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (q *redisQuota) used(ctx context.Context) (int64, error) {
	val, err := q.client.HGet(ctx, q.key, "count").Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read email count: %w", err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid email count %q: %w", val, err)
	}
	return n, nil
}

func (q *redisQuota) Exhausted(ctx context.Context) (bool, error) {
	used, err := q.used(ctx)
	if err != nil {
		return false, err
	}
	return used >= q.limit, nil
}

func (q *redisQuota) Reserve(ctx context.Context) (Reservation, error) {
	ttl := int64(q.window / time.Second)
	gen, err := reserveScript.Run(ctx, q.client, []string{q.key}, q.limit, ttl, q.newGen()).Text()
	if err != nil {
		return Reservation{}, fmt.Errorf("failed to reserve email quota: %w", err)
	}
	if gen == "" {
		return Reservation{}, nil
	}
	return Reservation{Granted: true, generation: gen}, nil
}

func (q *redisQuota) Release(ctx context.Context, r Reservation) error {
	if !r.Granted {
		return nil
	}
	if err := releaseScript.Run(ctx, q.client, []string{q.key}, r.generation).Err(); err != nil {
		return fmt.Errorf("failed to release email quota: %w", err)
	}
	return nil
}

func (q *redisQuota) Reset(ctx context.Context) error {
	if err := q.client.Del(ctx, q.key).Err(); err != nil {
		return fmt.Errorf("failed to reset email count: %w", err)
	}
	return nil
}

func (q *redisQuota) Status(ctx context.Context) (QuotaStatus, error) {
	used, err := q.used(ctx)
	if err != nil {
		return QuotaStatus{}, err
	}

	status := QuotaStatus{
		Used:      used,
		Limit:     q.limit,
		Remaining: max(q.limit-used, 0),
	}

	if q.window > 0 && used > 0 {
		ttl, err := q.client.TTL(ctx, q.key).Result()
		if err != nil {
			return QuotaStatus{}, fmt.Errorf("failed to read email count ttl: %w", err)
		}
		if ttl > 0 {
			resetsAt := time.Now().Add(ttl)
			status.ResetsAt = &resetsAt
		}
	}

	return status, nil
}
