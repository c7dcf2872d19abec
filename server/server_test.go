package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"Volfbot/media"
	"Volfbot/queue"
	"Volfbot/voice"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guildID = snowflake.ID(1000)

var (
	channelX = Channel{ID: 2000, Name: "music"}
	channelY = Channel{ID: 2001, Name: "gaming"}
	textChan = Channel{ID: 3000, Name: "bot-commands"}
	volf     = media.User{ID: 42, Name: "volf"}
)

type fakeConn struct {
	mu           sync.Mutex
	channelID    snowflake.ID
	completions  []func(error)
	playing      bool
	paused       bool
	disconnected bool
}

func (c *fakeConn) Play(stream io.ReadCloser, onComplete func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completions = append(c.completions, onComplete)
	c.playing = true
	return nil
}

func (c *fakeConn) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

func (c *fakeConn) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

func (c *fakeConn) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	c.playing = false
	return nil
}

func (c *fakeConn) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *fakeConn) ChannelID() snowflake.ID { return c.channelID }

func (c *fakeConn) Elapsed() time.Duration { return 30 * time.Second }

func (c *fakeConn) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

func (c *fakeConn) finishLast(err error) {
	c.mu.Lock()
	onComplete := c.completions[len(c.completions)-1]
	c.playing = false
	c.mu.Unlock()
	onComplete(err)
}

type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	block bool
}

func (t *fakeTransport) Connect(ctx context.Context, guildID, channelID snowflake.ID) (voice.Connection, error) {
	if t.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if t.err != nil {
		return nil, t.err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	conn := &fakeConn{channelID: channelID}
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) connects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *fakeTransport) last() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[len(t.conns)-1]
}

type fakeText struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeText) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, channelID+":"+content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeText) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeResolver struct {
	err error
}

func (r *fakeResolver) Resolve(ctx context.Context, url string) (*media.Resolution, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &media.Resolution{Title: "Never Gonna Give You Up", Duration: 213 * time.Second, StreamURL: "stream"}, nil
}

type source struct{}

func (source) Open(string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(""))
}

type fakeHistory struct {
	mu       sync.Mutex
	plays    []*media.Media
	channels [][2]snowflake.ID
}

func (h *fakeHistory) RecordPlay(ctx context.Context, guildID snowflake.ID, m *media.Media) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plays = append(h.plays, m)
	return nil
}

func (h *fakeHistory) RememberChannels(ctx context.Context, guildID, textID, voiceID snowflake.ID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels = append(h.channels, [2]snowflake.ID{textID, voiceID})
	return nil
}

func (h *fakeHistory) recorded() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.plays)
}

type fixture struct {
	server    *DiscordServer
	transport *fakeTransport
	text      *fakeText
	history   *fakeHistory
}

func newFixture(t *testing.T, configure ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		transport: &fakeTransport{},
		text:      &fakeText{},
		history:   &fakeHistory{},
	}
	deps := Deps{
		Transport:      f.transport,
		Resolver:       &fakeResolver{},
		Source:         source{},
		Text:           f.text,
		History:        f.history,
		ConnectTimeout: time.Second,
		ResolveTimeout: time.Second,
	}
	for _, c := range configure {
		c(&deps)
	}
	f.server = New(guildID, deps)
	return f
}

func (f *fixture) newMedia(t *testing.T) *media.Media {
	t.Helper()
	m, err := f.server.CreateMedia(context.Background(), "https://youtu.be/dQw4w9WgXcQ", volf)
	require.NoError(t, err)
	return m
}

func TestConnectTwice(t *testing.T) {
	f := newFixture(t)

	result, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	assert.Equal(t, Connected, result)

	result, err = f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	assert.Equal(t, AlreadyConnected, result)

	assert.Equal(t, 1, f.transport.connects())
	assert.Equal(t, &channelX, f.server.LastVoiceChannel())
	assert.Equal(t, channelX.ID, f.server.Connection().ChannelID())
}

func TestConnectSwitchesChannel(t *testing.T) {
	f := newFixture(t)
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	first := f.transport.last()
	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))

	result, err := f.server.ConnectToVC(context.Background(), channelY)

	require.NoError(t, err)
	assert.Equal(t, Connected, result)
	assert.True(t, first.isDisconnected())
	assert.False(t, f.server.Queue().IsPlaying())
	assert.Equal(t, channelY.ID, f.server.Connection().ChannelID())
	assert.Equal(t, &channelY, f.server.LastVoiceChannel())
}

func TestConnectSwitchesChannel_RewindsQueue(t *testing.T) {
	f := newFixture(t)
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	first, second := f.newMedia(t), f.newMedia(t)
	require.NoError(t, f.server.EnqueueMedia(first))
	require.NoError(t, f.server.EnqueueMedia(second))
	f.transport.last().finishLast(nil)
	require.Equal(t, 1, f.server.Queue().Index())

	_, err = f.server.ConnectToVC(context.Background(), channelY)
	require.NoError(t, err)
	assert.Equal(t, 0, f.server.Queue().Index())

	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))
	assert.Same(t, first, f.server.Queue().CurrentMedia())
	assert.True(t, f.server.Queue().IsPlaying())
}

func TestConnectTimeout(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.ConnectTimeout = 50 * time.Millisecond })
	f.transport.block = true

	result, err := f.server.ConnectToVC(context.Background(), channelX)

	assert.Equal(t, ConnectFailed, result)
	assert.ErrorIs(t, err, voice.ErrConnectionTimeout)
	assert.Nil(t, f.server.Connection())
}

func TestConnectFailure(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("missing permissions")
	f.transport.err = cause

	result, err := f.server.ConnectToVC(context.Background(), channelX)

	assert.Equal(t, ConnectFailed, result)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, f.server.Connection())
	assert.Nil(t, f.server.LastVoiceChannel())
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.server.DisconnectFromVC(context.Background(), nil), voice.ErrNotConnected)

	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	conn := f.transport.last()
	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))

	other := channelY.ID
	assert.ErrorIs(t, f.server.DisconnectFromVC(context.Background(), &other), voice.ErrNotConnected)
	assert.False(t, conn.isDisconnected())

	target := channelX.ID
	require.NoError(t, f.server.DisconnectFromVC(context.Background(), &target))
	assert.True(t, conn.isDisconnected())
	assert.Nil(t, f.server.Connection())
	assert.False(t, f.server.Queue().IsPlaying())
	assert.Equal(t, 0, f.server.Queue().Index())
	assert.ErrorIs(t, f.server.StopMedia(), queue.ErrNotPlaying)

	assert.ErrorIs(t, f.server.DisconnectFromVC(context.Background(), nil), voice.ErrNotConnected)
}

func TestCreateMedia(t *testing.T) {
	f := newFixture(t)

	m := f.newMedia(t)
	assert.Equal(t, "Never Gonna Give You Up", m.Metadata().Title())
	assert.Equal(t, volf, m.Metadata().QueuedBy())

	_, err := f.server.CreateMedia(context.Background(), "https://vimeo.com/1", volf)
	assert.ErrorIs(t, err, media.ErrInvalidLink)

	_, err = f.server.CreateMedia(context.Background(), "https://www.youtube.com/playlist?list=PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI", volf)
	assert.ErrorIs(t, err, media.ErrUnsupportedPlaylist)
}

func TestCreateMedia_ResolverFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Resolver = &fakeResolver{err: errors.New("unavailable")} })

	m, err := f.server.CreateMedia(context.Background(), "dQw4w9WgXcQ", volf)

	assert.Nil(t, m)
	assert.ErrorIs(t, err, media.ErrResolutionFailure)
}

func TestEnqueueWithoutVoice(t *testing.T) {
	f := newFixture(t)

	err := f.server.EnqueueMedia(f.newMedia(t))

	assert.ErrorIs(t, err, voice.ErrNotConnected)
	assert.Equal(t, 1, f.server.Queue().Len())
}

func TestPlaybackAnnouncesAndRecords(t *testing.T) {
	f := newFixture(t)
	f.server.SetLastTextChannel(textChan)
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)

	m := f.newMedia(t)
	require.NoError(t, f.server.EnqueueMedia(m))

	assert.Eventually(t, func() bool {
		return len(f.text.messages()) == 1 && f.history.recorded() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "3000:Now playing: Never Gonna Give You Up (00:03:33) queued by volf", f.text.messages()[0])

	playing, elapsed := f.server.NowPlaying()
	assert.Equal(t, m, playing)
	assert.Equal(t, 30*time.Second, elapsed)

	f.transport.last().finishLast(errors.New("stream reset"))
	assert.Eventually(t, func() bool {
		msgs := f.text.messages()
		return len(msgs) == 2 && msgs[1] == "3000:Failed to play Never Gonna Give You Up"
	}, time.Second, 5*time.Millisecond)

	playing, _ = f.server.NowPlaying()
	assert.Nil(t, playing)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.server.Pause(), voice.ErrNotConnected)

	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	assert.ErrorIs(t, f.server.Pause(), queue.ErrNotPlaying)

	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))
	require.NoError(t, f.server.Pause())
	assert.True(t, f.transport.last().paused)
	require.NoError(t, f.server.Resume())
	assert.False(t, f.transport.last().paused)
}

func TestStopClearSkip(t *testing.T) {
	f := newFixture(t)
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))
	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))

	assert.ErrorIs(t, f.server.ClearQueue(), queue.ErrQueueBusy)
	require.NoError(t, f.server.SkipMedia())
	assert.Equal(t, 1, f.server.Queue().Index())

	f.server.SetLooping(true)
	assert.True(t, f.server.Queue().Looping())

	require.NoError(t, f.server.StopMedia())
	require.NoError(t, f.server.ClearQueue())
	assert.Zero(t, f.server.Queue().Len())
}

func TestSendText(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.server.SendText(context.Background(), "hello"))

	f.server.SetLastTextChannel(textChan)
	assert.True(t, f.server.SendText(context.Background(), "hello"))
	assert.Equal(t, []string{"3000:hello"}, f.text.messages())

	f.text.err = errors.New("missing access")
	assert.False(t, f.server.SendText(context.Background(), "hello again"))
}

func TestSendText_RateLimited(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.TextRate = 0.001
		d.TextBurst = 1
	})
	f.server.SetLastTextChannel(textChan)

	assert.True(t, f.server.SendText(context.Background(), "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.False(t, f.server.SendText(ctx, "second"))
	assert.Equal(t, []string{"3000:first"}, f.text.messages())
}

func TestRemembersChannels(t *testing.T) {
	f := newFixture(t)

	f.server.SetLastTextChannel(textChan)
	f.server.SetLastTextChannel(textChan)
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		f.history.mu.Lock()
		defer f.history.mu.Unlock()
		return len(f.history.channels) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, [][2]snowflake.ID{{textChan.ID, 0}, {0, channelX.ID}}, f.history.channels)
}

func TestIdleDisconnect(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.IdleTimeout = 50 * time.Millisecond })
	f.server.SetLastTextChannel(textChan)
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	conn := f.transport.last()

	assert.Eventually(t, conn.isDisconnected, time.Second, 5*time.Millisecond)
	assert.Nil(t, f.server.Connection())
	assert.Eventually(t, func() bool {
		msgs := f.text.messages()
		return len(msgs) > 0 && msgs[len(msgs)-1] == "3000:Left the voice channel after being idle"
	}, time.Second, 5*time.Millisecond)
}

func TestIdleTimerWaitsWhilePlaying(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.IdleTimeout = 50 * time.Millisecond })
	_, err := f.server.ConnectToVC(context.Background(), channelX)
	require.NoError(t, err)
	conn := f.transport.last()
	require.NoError(t, f.server.EnqueueMedia(f.newMedia(t)))

	time.Sleep(150 * time.Millisecond)
	assert.False(t, conn.isDisconnected())

	conn.finishLast(nil)
	assert.Eventually(t, conn.isDisconnected, time.Second, 5*time.Millisecond)
}
