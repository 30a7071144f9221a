// Package cache memoizes transcripts by content fingerprint.
//
// The database table is authoritative. When a Redis client is configured it
// sits in front of the table as a read-through layer whose failures are
// logged and otherwise ignored.
package cache

import (
	"context"
	"time"

	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/redis"
	"github.com/kbukum/transcribot/store"
)

// KeyPrefix namespaces result entries in Redis.
const KeyPrefix = "transcribot:result"

type entry struct {
	ChatID     int64  `json:"chat_id"`
	FileURL    string `json:"file_url"`
	Transcript string `json:"transcript"`
}

// Cache is the deduplication cache.
type Cache struct {
	store store.Store
	front *redis.TypedStore[entry]
	ttl   time.Duration
	log   *logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithRedis enables the Redis front with the client's configured TTL.
func WithRedis(client *redis.Client) Option {
	return func(c *Cache) {
		if client == nil {
			return
		}
		c.front = redis.NewTypedStore[entry](client, KeyPrefix)
		c.ttl = client.TTL()
	}
}

// New creates a cache over s.
func New(s store.Store, log *logger.Logger, opts ...Option) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	c := &Cache{store: s, log: log.WithComponent("cache")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the transcript memoized for fingerprint.
func (c *Cache) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	if c.front != nil {
		e, err := c.front.Load(ctx, fingerprint)
		if err != nil {
			c.log.Warn("Redis lookup failed", logger.Fields(logger.FieldFingerprint, fingerprint, logger.FieldError, err.Error()))
		} else if e != nil {
			return e.Transcript, true, nil
		}
	}

	res, err := c.store.FindResult(ctx, fingerprint)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	c.fill(ctx, fingerprint, entry{ChatID: res.ChatID, FileURL: res.FileURL, Transcript: res.Transcript})
	return res.Transcript, true, nil
}

// Store memoizes transcript. An existing fingerprint keeps its first value.
func (c *Cache) Store(ctx context.Context, fingerprint string, chatID int64, sourceURL, transcript string) error {
	err := c.store.SaveResult(ctx, &store.CachedResult{
		Fingerprint: fingerprint,
		ChatID:      chatID,
		FileURL:     sourceURL,
		Transcript:  transcript,
	})
	if err != nil {
		return err
	}
	if c.front != nil {
		// re-read so Redis mirrors the stored value, not a losing duplicate
		if res, err := c.store.FindResult(ctx, fingerprint); err == nil {
			c.fill(ctx, fingerprint, entry{ChatID: res.ChatID, FileURL: res.FileURL, Transcript: res.Transcript})
		}
	}
	return nil
}

func (c *Cache) fill(ctx context.Context, fingerprint string, e entry) {
	if c.front == nil {
		return
	}
	if err := c.front.Save(ctx, fingerprint, &e, c.ttl); err != nil {
		c.log.Warn("Redis fill failed", logger.Fields(logger.FieldFingerprint, fingerprint, logger.FieldError, err.Error()))
	}
}
