package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of media variants
type Kind int

const (
	KindVideo Kind = iota
	KindPlaylist
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Resolution is what a Resolver learns about a single video
type Resolution struct {
	Title     string        `json:"title"`
	Duration  time.Duration `json:"duration"`
	StreamURL string        `json:"stream_url"`
}

// Resolver looks up playable metadata for a canonical media URL
type Resolver interface {
	Resolve(ctx context.Context, url string) (*Resolution, error)
}

// AudioSourceProvider turns a resolved stream URL into a single-pass PCM stream.
// Opening must be lazy: no work happens until the first Read.
type AudioSourceProvider interface {
	Open(streamURL string) io.ReadCloser
}

type Media struct {
	id        uuid.UUID
	kind      Kind
	url       string
	metadata  Metadata
	streamURL string
	source    AudioSourceProvider
}

// NewVideo builds a playable single video
func NewVideo(url string, metadata Metadata, streamURL string, source AudioSourceProvider) *Media {
	return &Media{
		id:        uuid.New(),
		kind:      KindVideo,
		url:       url,
		metadata:  metadata,
		streamURL: streamURL,
		source:    source,
	}
}

// NewPlaylist builds a playlist entry. Nothing produces these yet and they cannot be played.
func NewPlaylist(url string, metadata Metadata) *Media {
	return &Media{
		id:       uuid.New(),
		kind:     KindPlaylist,
		url:      url,
		metadata: metadata,
	}
}

func (m *Media) ID() uuid.UUID {
	return m.id
}

func (m *Media) Kind() Kind {
	return m.kind
}

func (m *Media) URL() string {
	return m.url
}

func (m *Media) Metadata() Metadata {
	return m.metadata
}

func (m *Media) IsPlaylist() bool {
	return m.kind == KindPlaylist
}

// Play opens the audio stream for the media
func (m *Media) Play() (io.ReadCloser, error) {
	switch m.kind {
	case KindVideo:
		if m.source == nil {
			return nil, fmt.Errorf("no audio source for %s", m.url)
		}
		return m.source.Open(m.streamURL), nil
	case KindPlaylist:
		return nil, ErrUnsupportedPlaylist
	default:
		return nil, fmt.Errorf("unknown media kind %d", m.kind)
	}
}

// Create validates a link, resolves it and builds the video it points at
func Create(ctx context.Context, link string, requester User, resolver Resolver, source AudioSourceProvider) (*Media, error) {
	videoID, err := ParseLink(link)
	if err != nil {
		return nil, err
	}

	url := CanonicalURL(videoID)
	res, err := resolver.Resolve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailure, err)
	}

	return NewVideo(url, NewMetadata(res.Title, res.Duration, requester, ""), res.StreamURL, source), nil
}
