package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Volfbot/media"
	"Volfbot/queue"
	"Volfbot/voice"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"
)

// ConnectResult is the outcome of ConnectToVC
type ConnectResult int

const (
	ConnectFailed ConnectResult = iota
	Connected
	AlreadyConnected
)

func (r ConnectResult) String() string {
	switch r {
	case Connected:
		return "connected"
	case AlreadyConnected:
		return "already connected"
	default:
		return "failed"
	}
}

// Channel is a guild channel the bot has used
type Channel struct {
	ID   snowflake.ID
	Name string
}

// TextSender delivers plain text messages. *discordgo.Session satisfies it.
type TextSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// HistoryRecorder keeps a record of plays and channels
type HistoryRecorder interface {
	RecordPlay(ctx context.Context, guildID snowflake.ID, m *media.Media) error
	RememberChannels(ctx context.Context, guildID, textChannelID, voiceChannelID snowflake.ID) error
}

// Deps are the collaborators a DiscordServer works through. History is optional.
type Deps struct {
	Transport voice.Transport
	Resolver  media.Resolver
	Source    media.AudioSourceProvider
	Text      TextSender
	History   HistoryRecorder

	ConnectTimeout time.Duration
	ResolveTimeout time.Duration
	IdleTimeout    time.Duration

	TextRate  rate.Limit
	TextBurst int
}

const recordTimeout = 5 * time.Second

// DiscordServer is the playback state for one guild
type DiscordServer struct {
	guildID snowflake.ID
	deps    Deps
	logCtx  context.Context

	// serializes connect, disconnect and every queue mutation
	mu sync.Mutex

	connMu sync.RWMutex
	conn   voice.Connection

	chanMu    sync.RWMutex
	lastText  *Channel
	lastVoice *Channel

	queue   *queue.MediaQueue
	limiter *rate.Limiter

	idleMu  sync.Mutex
	idle    *time.Timer
	idleGen uint64
}

func New(guildID snowflake.ID, deps Deps) *DiscordServer {
	if deps.TextRate == 0 {
		deps.TextRate = rate.Inf
	}
	if deps.TextBurst <= 0 {
		deps.TextBurst = 1
	}

	s := &DiscordServer{
		guildID: guildID,
		deps:    deps,
		logCtx: context.WithValue(context.Background(), log.Key, log.Fields{
			"guild_id": guildID.String(),
		}),
		limiter: rate.NewLimiter(deps.TextRate, deps.TextBurst),
	}
	s.queue = queue.New(s.Connection, queue.Hooks{
		OnPlay:  s.onPlay,
		OnIdle:  s.onIdle,
		OnError: s.onError,
	})
	return s
}

func (s *DiscordServer) GuildID() snowflake.ID {
	return s.guildID
}

func (s *DiscordServer) Queue() *queue.MediaQueue {
	return s.queue
}

// Connection is the current voice connection, or nil
func (s *DiscordServer) Connection() voice.Connection {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn
}

func (s *DiscordServer) setConnection(conn voice.Connection) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conn = conn
}

func (s *DiscordServer) LastTextChannel() *Channel {
	s.chanMu.RLock()
	defer s.chanMu.RUnlock()
	return s.lastText
}

func (s *DiscordServer) LastVoiceChannel() *Channel {
	s.chanMu.RLock()
	defer s.chanMu.RUnlock()
	return s.lastVoice
}

// SetLastTextChannel records where the guild last talked to the bot
func (s *DiscordServer) SetLastTextChannel(ch Channel) {
	s.chanMu.Lock()
	changed := s.lastText == nil || s.lastText.ID != ch.ID
	s.lastText = &ch
	s.chanMu.Unlock()

	if changed {
		s.remember(ch.ID, 0)
	}
}

func (s *DiscordServer) setLastVoiceChannel(ch Channel) {
	s.chanMu.Lock()
	s.lastVoice = &ch
	s.chanMu.Unlock()

	s.remember(0, ch.ID)
}

func (s *DiscordServer) remember(textID, voiceID snowflake.ID) {
	if s.deps.History == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.deps.History.RememberChannels(ctx, s.guildID, textID, voiceID); err != nil {
			log.WithError(err).Error("Failed to remember channels")
		}
	}()
}

// ConnectToVC joins ch, leaving any other channel first
func (s *DiscordServer) ConnectToVC(ctx context.Context, ch Channel) (ConnectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn := s.Connection(); conn != nil {
		if conn.ChannelID() == ch.ID {
			return AlreadyConnected, nil
		}

		s.queue.Halt()
		if err := s.closeLocked(conn); err != nil {
			log.WithError(err).Error("Failed to leave previous voice channel")
		}
	}

	if s.deps.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.ConnectTimeout)
		defer cancel()
	}

	conn, err := s.deps.Transport.Connect(ctx, s.guildID, ch.ID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = voice.ErrConnectionTimeout
		}
		return ConnectFailed, err
	}

	s.setConnection(conn)
	s.setLastVoiceChannel(ch)
	log.WithContext(s.logCtx).Info(fmt.Sprintf("Connected to voice channel %s", ch.ID))

	if !s.queue.IsPlaying() {
		s.armIdle()
	}
	return Connected, nil
}

// DisconnectFromVC leaves the voice channel. A nil channelID means whatever channel the bot is in.
func (s *DiscordServer) DisconnectFromVC(ctx context.Context, channelID *snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn := s.Connection()
	if conn == nil {
		return voice.ErrNotConnected
	}
	if channelID != nil && *channelID != conn.ChannelID() {
		return voice.ErrNotConnected
	}

	s.queue.Halt()
	return s.closeLocked(conn)
}

func (s *DiscordServer) closeLocked(conn voice.Connection) error {
	s.stopIdle()
	s.setConnection(nil)
	log.WithContext(s.logCtx).Info(fmt.Sprintf("Leaving voice channel %s", conn.ChannelID()))

	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("disconnecting from voice: %w", err)
	}
	return nil
}

// CreateMedia resolves link into media queued by requester
func (s *DiscordServer) CreateMedia(ctx context.Context, link string, requester media.User) (*media.Media, error) {
	if s.deps.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.ResolveTimeout)
		defer cancel()
	}
	return media.Create(ctx, link, requester, s.deps.Resolver, s.deps.Source)
}

// EnqueueMedia adds m to the queue, starting it when nothing is playing
func (s *DiscordServer) EnqueueMedia(m *media.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopIdle()
	err := s.queue.Enqueue(m)
	if !s.queue.IsPlaying() && s.Connection() != nil {
		s.armIdle()
	}
	return err
}

func (s *DiscordServer) StopMedia() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.queue.Stop(); err != nil {
		return err
	}
	s.armIdle()
	return nil
}

func (s *DiscordServer) ClearQueue() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Clear()
}

func (s *DiscordServer) SkipMedia() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Skip()
}

func (s *DiscordServer) SetLooping(looping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.SetLooping(looping)
}

func (s *DiscordServer) Pause() error {
	return s.withPlayback(voice.Connection.Pause)
}

func (s *DiscordServer) Resume() error {
	return s.withPlayback(voice.Connection.Resume)
}

func (s *DiscordServer) withPlayback(fn func(voice.Connection)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn := s.Connection()
	if conn == nil {
		return voice.ErrNotConnected
	}
	if !s.queue.IsPlaying() {
		return queue.ErrNotPlaying
	}
	fn(conn)
	return nil
}

// NowPlaying returns the playing media and how far into it playback is
func (s *DiscordServer) NowPlaying() (*media.Media, time.Duration) {
	conn := s.Connection()
	if conn == nil || !s.queue.IsPlaying() {
		return nil, 0
	}
	return s.queue.CurrentMedia(), conn.Elapsed()
}

// SendText posts content to the last text channel. Failures are logged, not returned.
func (s *DiscordServer) SendText(ctx context.Context, content string) bool {
	ch := s.LastTextChannel()
	if ch == nil || s.deps.Text == nil {
		return false
	}

	if err := s.limiter.Wait(ctx); err != nil {
		log.WithError(err).Error("Dropped text message")
		return false
	}

	if _, err := s.deps.Text.ChannelMessageSend(ch.ID.String(), content); err != nil {
		log.WithError(err).Error(fmt.Sprintf("Failed to send message to channel %s", ch.ID))
		return false
	}
	return true
}

// Shutdown stops playback and leaves voice
func (s *DiscordServer) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopIdle()
	conn := s.Connection()
	if conn == nil {
		return nil
	}
	s.queue.Halt()
	return s.closeLocked(conn)
}

func (s *DiscordServer) announce(content string) {
	go s.SendText(context.Background(), content)
}

func (s *DiscordServer) onPlay(m *media.Media) {
	s.stopIdle()
	s.announce(fmt.Sprintf("Now playing: %s", m.Metadata()))

	if s.deps.History == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.deps.History.RecordPlay(ctx, s.guildID, m); err != nil {
			log.WithError(err).Error("Failed to record play")
		}
	}()
}

func (s *DiscordServer) onIdle() {
	s.armIdle()
}

func (s *DiscordServer) onError(err *queue.PlaybackError) {
	s.announce(fmt.Sprintf("Failed to play %s", err.Media.Metadata().Title()))
}

// armIdle schedules leaving voice after the idle timeout
func (s *DiscordServer) armIdle() {
	if s.deps.IdleTimeout <= 0 {
		return
	}

	s.idleMu.Lock()
	defer s.idleMu.Unlock()

	if s.idle != nil {
		s.idle.Stop()
	}
	s.idleGen++
	gen := s.idleGen
	s.idle = time.AfterFunc(s.deps.IdleTimeout, func() { s.idleDisconnect(gen) })
}

func (s *DiscordServer) stopIdle() {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()

	s.idleGen++
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
}

func (s *DiscordServer) idleDisconnect(gen uint64) {
	s.mu.Lock()

	s.idleMu.Lock()
	stale := gen != s.idleGen
	s.idleMu.Unlock()

	conn := s.Connection()
	if stale || conn == nil || s.queue.IsPlaying() {
		s.mu.Unlock()
		return
	}

	s.queue.Halt()
	if err := s.closeLocked(conn); err != nil {
		log.WithError(err).Error("Failed to leave idle voice channel")
	}
	s.mu.Unlock()

	s.SendText(context.Background(), "Left the voice channel after being idle")
}
