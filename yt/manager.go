package yt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Volfbot/media"

	"github.com/Strum355/log"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "ytmeta:"

// YouTubeManager resolves youtube links, caching what it learns in redis
type YouTubeManager struct {
	redis    *redis.Client
	ttl      time.Duration
	timeout  time.Duration
	fetchers []fetcher
}

// NewYouTubeManager builds a resolver that tries the youtube client first and yt-dlp second.
// rdb may be nil, in which case nothing is cached.
func NewYouTubeManager(rdb *redis.Client, ttl, timeout time.Duration) *YouTubeManager {
	return &YouTubeManager{
		redis:    rdb,
		ttl:      ttl,
		timeout:  timeout,
		fetchers: []fetcher{&clientFetcher{}, &ytdlpFetcher{}},
	}
}

// Resolve looks up title, length and a playable stream URL for url
func (ym *YouTubeManager) Resolve(ctx context.Context, url string) (*media.Resolution, error) {
	videoID, err := media.ParseLink(url)
	if err != nil {
		return nil, err
	}

	if res, ok := ym.cached(ctx, videoID); ok {
		return res, nil
	}

	var errs []error
	for _, f := range ym.fetchers {
		res, err := ym.fetch(ctx, f, videoID)
		if err != nil {
			log.WithError(err).Error(fmt.Sprintf("Failed to resolve %s with %s", videoID, f.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		ym.store(ctx, videoID, res)
		return res, nil
	}

	return nil, errors.Join(errs...)
}

func (ym *YouTubeManager) fetch(ctx context.Context, f fetcher, videoID string) (*media.Resolution, error) {
	if ym.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ym.timeout)
		defer cancel()
	}
	return f.Fetch(ctx, videoID)
}

func (ym *YouTubeManager) cached(ctx context.Context, videoID string) (*media.Resolution, bool) {
	if ym.redis == nil {
		return nil, false
	}

	cached, err := ym.redis.Get(ctx, cachePrefix+videoID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Error("Failed to read youtube cache")
		}
		return nil, false
	}

	var res media.Resolution
	if err := json.Unmarshal([]byte(cached), &res); err != nil || res.StreamURL == "" {
		return nil, false
	}
	return &res, true
}

func (ym *YouTubeManager) store(ctx context.Context, videoID string, res *media.Resolution) {
	if ym.redis == nil {
		return
	}

	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := ym.redis.Set(ctx, cachePrefix+videoID, data, ym.ttl).Err(); err != nil {
		log.WithError(err).Error("Failed to write youtube cache")
	}
}
