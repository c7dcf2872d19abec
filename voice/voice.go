package voice

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

var (
	ErrConnectionTimeout = errors.New("timed out connecting to voice channel")
	ErrNotConnected      = errors.New("not connected to a voice channel")
)

// Transport opens voice connections for a guild
type Transport interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (Connection, error)
}

// Connection is a live voice channel connection able to play one stream at a time.
// onComplete is called exactly once per Play, with nil when the stream ended or was stopped.
type Connection interface {
	Play(stream io.ReadCloser, onComplete func(error)) error
	Stop()
	Pause()
	Resume()
	Disconnect() error
	IsPlaying() bool
	ChannelID() snowflake.ID
	Elapsed() time.Duration
}
