package yt

import (
	"context"

	"Volfbot/media"
)

// fetcher is one way of looking a video up
type fetcher interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (*media.Resolution, error)
}
