package yt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Volfbot/media"

	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
)

var errNoAudio = errors.New("no audio formats available")

// clientFetcher asks youtube directly
type clientFetcher struct {
	client youtube.Client
}

func (f *clientFetcher) Name() string {
	return "youtube"
}

func (f *clientFetcher) Fetch(ctx context.Context, videoID string) (*media.Resolution, error) {
	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, err
	}

	formats := video.Formats.Type("audio").WithAudioChannels()
	if len(formats) == 0 {
		formats = video.Formats.WithAudioChannels()
	}
	if len(formats) == 0 {
		return nil, errNoAudio
	}
	formats.Sort()

	streamURL, err := f.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return nil, err
	}

	return &media.Resolution{
		Title:     video.Title,
		Duration:  video.Duration,
		StreamURL: streamURL,
	}, nil
}

// ytdlpFetcher shells out to yt-dlp for videos the client cannot decipher
type ytdlpFetcher struct{}

func (f *ytdlpFetcher) Name() string {
	return "yt-dlp"
}

func (f *ytdlpFetcher) Fetch(ctx context.Context, videoID string) (*media.Resolution, error) {
	res, err := ytdlp.New().
		Print("%(url)s\t%(title)s\t%(duration)s").
		Format("m4a/bestaudio/best").
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--no-playlist", "--skip-download", media.CanonicalURL(videoID))
	if err != nil {
		return nil, err
	}
	return parsePrint(res.Stdout)
}

// parsePrint reads the url, title and duration line printed by yt-dlp
func parsePrint(out string) (*media.Resolution, error) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || !strings.HasPrefix(parts[0], "http") {
			continue
		}

		var duration time.Duration
		if secs, err := strconv.ParseFloat(parts[2], 64); err == nil {
			duration = time.Duration(secs * float64(time.Second))
		}
		return &media.Resolution{
			Title:     parts[1],
			Duration:  duration,
			StreamURL: parts[0],
		}, nil
	}
	return nil, fmt.Errorf("unexpected yt-dlp output %q", out)
}
