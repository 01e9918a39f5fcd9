package music

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	redislib "github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/redis"
)

const (
	DefaultResolveCacheTTL = 5 * time.Minute
	// entries kept in process memory when there is no redis
	resolveCacheSize = 1024
)

// ResolveCache remembers query results for a short while. It is backed by
// Redis when a client is given and by a bounded in-process LRU otherwise. A
// nil *ResolveCache never hits.
type ResolveCache struct {
	client *redislib.Client
	ttl    time.Duration
	local  *expirable.LRU[string, Track]
}

func NewResolveCache(client *redislib.Client, ttl time.Duration) *ResolveCache {
	return newResolveCache(client, ttl, resolveCacheSize)
}

func newResolveCache(client *redislib.Client, ttl time.Duration, size int) *ResolveCache {
	if ttl <= 0 {
		ttl = DefaultResolveCacheTTL
	}
	c := &ResolveCache{client: client, ttl: ttl}
	if client == nil {
		c.local = expirable.NewLRU[string, Track](size, nil, ttl)
	}
	return c
}

func (c *ResolveCache) Get(ctx context.Context, query string) (Track, bool) {
	if c == nil {
		return Track{}, false
	}
	key := redis.ResolveKey(normalizeQuery(query))

	if c.client == nil {
		return c.local.Get(key)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redislib.Nil {
			zlog.Debug().Err(err).Msg("resolve cache read failed")
		}
		return Track{}, false
	}
	var track Track
	if err := json.Unmarshal(raw, &track); err != nil {
		return Track{}, false
	}
	return track, true
}

func (c *ResolveCache) Set(ctx context.Context, query string, track Track) {
	if c == nil {
		return
	}
	key := redis.ResolveKey(normalizeQuery(query))

	if c.client == nil {
		c.local.Add(key, track)
		return
	}

	payload, err := json.Marshal(track)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		zlog.Debug().Err(err).Msg("resolve cache write failed")
	}
}

// normalizeQuery folds case and spacing of search terms. Links keep their
// path and query as typed since video ids are case sensitive; only the
// scheme and host are lowercased.
func normalizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if !looksLikeURL(query) {
		return strings.ToLower(strings.Join(strings.Fields(query), " "))
	}

	u, err := url.Parse(query)
	if err != nil {
		return query
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
