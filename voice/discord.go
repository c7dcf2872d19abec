package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"layeh.com/gopus"
)

const readyPoll = 250 * time.Millisecond

// DiscordTransport joins voice channels through a discordgo session
type DiscordTransport struct {
	session *discordgo.Session
}

func NewDiscordTransport(s *discordgo.Session) *DiscordTransport {
	return &DiscordTransport{session: s}
}

type joinResult struct {
	vc  *discordgo.VoiceConnection
	err error
}

// Connect joins the channel and waits until it can send audio, or until ctx expires
func (t *DiscordTransport) Connect(ctx context.Context, guildID, channelID snowflake.ID) (Connection, error) {
	results := make(chan joinResult, 1)

	go func() {
		vc, err := t.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
		if err == nil {
			err = waitReady(ctx, vc)
		}
		results <- joinResult{vc: vc, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			if res.vc != nil {
				res.vc.Disconnect()
			}
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, ErrConnectionTimeout
			}
			return nil, fmt.Errorf("joining voice channel %s: %w", channelID, res.err)
		}
		return newDiscordConnection(res.vc, channelID), nil
	case <-ctx.Done():
		// the join may still succeed after we gave up on it
		go func() {
			if res := <-results; res.vc != nil {
				res.vc.Disconnect()
			}
		}()
		return nil, ErrConnectionTimeout
	}
}

func waitReady(ctx context.Context, vc *discordgo.VoiceConnection) error {
	for {
		vc.RLock()
		ready := vc.Ready
		vc.RUnlock()
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPoll):
		}
	}
}

type discordConnection struct {
	vc        *discordgo.VoiceConnection
	channelID snowflake.ID

	mu      sync.Mutex
	session *AudioSession
}

func newDiscordConnection(vc *discordgo.VoiceConnection, channelID snowflake.ID) *discordConnection {
	return &discordConnection{vc: vc, channelID: channelID}
}

func (c *discordConnection) speaking(b bool) {
	if err := c.vc.Speaking(b); err != nil {
		log.WithError(err).Error("Failed to set speaking state")
	}
}

// Play replaces whatever is currently playing with stream
func (c *discordConnection) Play(stream io.ReadCloser, onComplete func(error)) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		stream.Close()
		return fmt.Errorf("creating opus encoder: %w", err)
	}

	c.vc.RLock()
	send := c.vc.OpusSend
	c.vc.RUnlock()
	if send == nil {
		stream.Close()
		return ErrNotConnected
	}

	session := newAudioSession(stream, send, c.speaking, encoder)

	c.mu.Lock()
	prev := c.session
	c.session = session
	c.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	go session.run(prev, onComplete)
	return nil
}

func (c *discordConnection) current() *AudioSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *discordConnection) Stop() {
	if s := c.current(); s != nil {
		s.Stop()
	}
}

func (c *discordConnection) Pause() {
	if s := c.current(); s != nil {
		s.Pause()
	}
}

func (c *discordConnection) Resume() {
	if s := c.current(); s != nil {
		s.Resume()
	}
}

func (c *discordConnection) IsPlaying() bool {
	s := c.current()
	return s != nil && s.IsPlaying()
}

func (c *discordConnection) Elapsed() time.Duration {
	if s := c.current(); s != nil {
		return s.Elapsed()
	}
	return 0
}

func (c *discordConnection) ChannelID() snowflake.ID {
	return c.channelID
}

func (c *discordConnection) Disconnect() error {
	c.Stop()
	return c.vc.Disconnect()
}
