// Package cache keeps rendered folder trees in Redis so repeated structure
// reads skip the database.
//
// Entries are versioned per user. Each user has a generation counter that
// Invalidate increments, and entries are stored under the generation that
// was current when the tree was read from storage:
//
//	bookmarks:structure:gen:<user>        → 3
//	bookmarks:structure:<user>:3          → {"folders":[...],"bookmarks":[...]}
//
// A Set for a tree loaded before a change lands under an old generation and
// is never read again, so a slow reader cannot put a stale tree back. Old
// entries age out through the TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/bookmarks/internal/model"
)

const (
	keyPrefix = "bookmarks:structure:"
	genPrefix = "bookmarks:structure:gen:"
)

// KV is the subset of redis.Cmdable the cache needs. *redis.Client
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Structure caches model.Structure values per user.
type Structure struct {
	kv  KV
	ttl time.Duration
}

// NewStructure returns a Redis-backed cache. ttl defaults to five minutes.
func NewStructure(kv KV, ttl time.Duration) *Structure {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Structure{kv: kv, ttl: ttl}
}

func genKey(userID int64) string {
	return genPrefix + strconv.FormatInt(userID, 10)
}

func entryKey(userID, gen int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(gen, 10)
}

// Get returns the cached structure for the user's current generation. gen
// must be passed back to Set when the caller fills a miss. ok is false on a
// miss.
func (c *Structure) Get(ctx context.Context, userID int64) (s model.Structure, gen int64, ok bool, err error) {
	gen, err = c.kv.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		gen, err = 0, nil
	}
	if err != nil {
		return model.Structure{}, 0, false, fmt.Errorf("cache: reading generation: %w", err)
	}

	b, err := c.kv.Get(ctx, entryKey(userID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Structure{}, gen, false, nil
	}
	if err != nil {
		return model.Structure{}, gen, false, fmt.Errorf("cache: get: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return model.Structure{}, gen, false, fmt.Errorf("cache: decoding entry: %w", err)
	}
	return s, gen, true, nil
}

// Set stores s under generation gen, as returned by the Get that missed.
func (c *Structure) Set(ctx context.Context, userID, gen int64, s model.Structure) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cache: encoding entry: %w", err)
	}
	if err := c.kv.Set(ctx, entryKey(userID, gen), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Invalidate moves the user to a new generation. Entries written under any
// earlier generation become unreachable.
func (c *Structure) Invalidate(ctx context.Context, userID int64) error {
	if err := c.kv.Incr(ctx, genKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}
