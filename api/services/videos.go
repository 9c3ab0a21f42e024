package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type Video struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	ChannelTitle string `json:"channelTitle"`
}

// VideoSearcher finds videos for a query. Implementations may fail; callers
// treat results as optional.
type VideoSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Video, error)
}

// NoVideos is used when no video search is configured.
type NoVideos struct{}

func (NoVideos) Search(context.Context, string, int) ([]Video, error) {
	return nil, nil
}

// YouTubeSearcher searches the YouTube Data API v3.
type YouTubeSearcher struct {
	svc *youtube.Service
}

// NewYouTubeSearcher expects credentials among opts, usually option.WithAPIKey.
func NewYouTubeSearcher(ctx context.Context, opts ...option.ClientOption) (*YouTubeSearcher, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &YouTubeSearcher{svc: svc}, nil
}

func (y *YouTubeSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	resp, err := y.svc.Search.List([]string{"id", "snippet"}).
		Q(query + " English lesson").
		Type("video").
		SafeSearch("strict").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, Video{
			Title:        item.Snippet.Title,
			URL:          "https://www.youtube.com/watch?v=" + item.Id.VideoId,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return videos, nil
}

// VideoCache stores serialized search results. ErrCacheMiss marks absent keys.
type VideoCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("cache miss")

// RedisCache adapts a redis client to VideoCache.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to url (redis://...) and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return raw, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// CachedVideoSearcher serves repeated queries from a cache. Cache failures
// fall through to the wrapped searcher.
type CachedVideoSearcher struct {
	next  VideoSearcher
	cache VideoCache
	ttl   time.Duration
}

func NewCachedVideoSearcher(next VideoSearcher, cache VideoCache, ttl time.Duration) *CachedVideoSearcher {
	return &CachedVideoSearcher{next: next, cache: cache, ttl: ttl}
}

func videoCacheKey(query string, limit int) string {
	return fmt.Sprintf("videos:%d:%s", limit, strings.ToLower(strings.Join(strings.Fields(query), " ")))
}

func (c *CachedVideoSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	key := videoCacheKey(query, limit)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var videos []Video
		if err := json.Unmarshal(raw, &videos); err == nil {
			return videos, nil
		}
		log.Warn().Str("key", key).Msg("Discarding unreadable cached videos")
	case !errors.Is(err, ErrCacheMiss):
		log.Warn().Err(err).Msg("Video cache read failed")
	}

	videos, err := c.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	raw, err = json.Marshal(videos)
	if err == nil {
		err = c.cache.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Video cache write failed")
	}
	return videos, nil
}
