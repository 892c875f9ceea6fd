package refdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCachePrefix = "refdata:"

// Cache keeps parsed dataset snapshots in Redis. Keys embed the file size and
// modification time, so an edited file is never served from a stale snapshot.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCache constructs a snapshot cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, prefix: defaultCachePrefix}
}

// Key derives the snapshot key for a file.
func (c *Cache) Key(path string, info fs.FileInfo) string {
	prefix := defaultCachePrefix
	if c != nil && c.prefix != "" {
		prefix = c.prefix
	}
	if info == nil {
		return prefix + path
	}
	return fmt.Sprintf("%s%s:%d:%d", prefix, path, info.Size(), info.ModTime().UnixNano())
}

// Get returns the cached snapshot. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, key string) (Dataset, bool, error) {
	if c == nil || c.client == nil || key == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var ds Dataset
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&ds); err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

// Encode serializes a dataset for Set. Documents JSON cannot represent, such as
// YAML infinities, fail here rather than in Redis.
func Encode(ds Dataset) ([]byte, error) {
	return json.Marshal(ds)
}

// Set stores an encoded snapshot with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	if c == nil || c.client == nil || key == "" || len(data) == 0 {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
