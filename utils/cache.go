package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	defaultCacheTTL = 5 * time.Minute
	// stale copies outlive the fresh TTL so the last good upstream payload can
	// be served through an outage
	staleTTL    = 24 * time.Hour
	stalePrefix = "stale:"
)

type memEntry struct {
	b         []byte
	expiresAt time.Time
}

var (
	memCache   = map[string]memEntry{}
	memCacheMu sync.Mutex
)

// CacheGetBytes returns cached bytes for a key, preferring Redis and falling
// back to the in-process map when Redis is unreachable.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if b, err := rc.Get(ctx, key).Bytes(); err == nil {
		return b, true
	}
	return memGet(key)
}

// CacheSetBytes stores bytes under key with the given TTL and keeps a longer
// lived stale copy for degraded serving.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		memSet(key, b, ttl)
	}
	if err := rc.Set(ctx, stalePrefix+key, b, staleTTL).Err(); err != nil {
		memSet(stalePrefix+key, b, staleTTL)
	}
}

// CacheGetStaleBytes returns the last good payload stored for key even after
// the fresh TTL expired. Used when the upstream provider is down.
func CacheGetStaleBytes(key string) ([]byte, bool) {
	return CacheGetBytes(stalePrefix + key)
}

// CacheSetJSON marshals v and stores JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

func memGet(key string) ([]byte, bool) {
	memCacheMu.Lock()
	defer memCacheMu.Unlock()
	entry, ok := memCache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(memCache, key)
		return nil, false
	}
	return entry.b, true
}

func memSet(key string, b []byte, ttl time.Duration) {
	memCacheMu.Lock()
	defer memCacheMu.Unlock()
	memCache[key] = memEntry{b: b, expiresAt: time.Now().Add(ttl)}
	// opportunistic sweep to keep the fallback map bounded
	now := time.Now()
	for k, e := range memCache {
		if now.After(e.expiresAt) {
			delete(memCache, k)
		}
	}
}
