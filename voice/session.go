package voice

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	sampleRate       = 48000
	channels         = 2
	frameSize        = 960
	maxOpusFrameSize = 4000
	frameDuration    = 20 * time.Millisecond
	sendTimeout      = time.Second
	pausePoll        = 100 * time.Millisecond
)

var errSendTimeout = errors.New("timeout sending opus frame")

type frameEncoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// AudioSession streams one PCM source to a voice connection as opus frames
type AudioSession struct {
	send     chan<- []byte
	speaking func(bool)
	encoder  frameEncoder
	stream   io.ReadCloser

	mu      sync.Mutex
	paused  bool
	playing bool
	stopped bool
	frames  int64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newAudioSession(stream io.ReadCloser, send chan<- []byte, speaking func(bool), encoder frameEncoder) *AudioSession {
	return &AudioSession{
		send:     send,
		speaking: speaking,
		encoder:  encoder,
		stream:   stream,
		playing:  true,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Pause holds the session on the current frame
func (s *AudioSession) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume continues a paused session
func (s *AudioSession) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *AudioSession) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *AudioSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Elapsed is the amount of audio sent so far
func (s *AudioSession) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.frames) * frameDuration
}

// Stop ends playback. It does not wait for the send loop to exit.
func (s *AudioSession) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.playing = false
	close(s.stop)
	s.mu.Unlock()

	s.closeStream()
}

// Done is closed once the send loop has exited
func (s *AudioSession) Done() <-chan struct{} {
	return s.done
}

func (s *AudioSession) closeStream() {
	s.closeOnce.Do(func() {
		s.stream.Close()
	})
}

func (s *AudioSession) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// run sends the stream until it ends, then reports to onComplete.
// prev is the session this one replaced, if any; run waits for it to let go of the channel.
func (s *AudioSession) run(prev *AudioSession, onComplete func(error)) {
	if prev != nil {
		<-prev.Done()
	}

	err := s.loop()
	if s.wasStopped() {
		err = nil
	}

	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	close(s.done)

	if onComplete != nil {
		onComplete(err)
	}
}

func (s *AudioSession) loop() error {
	defer s.closeStream()

	select {
	case <-s.stop:
		return nil
	default:
	}

	s.speaking(true)
	defer s.speaking(false)

	buf := make([]int16, frameSize*channels)
	for {
		if s.IsPaused() {
			select {
			case <-s.stop:
				return nil
			case <-time.After(pausePoll):
			}
			continue
		}

		if err := binary.Read(s.stream, binary.LittleEndian, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("reading pcm: %w", err)
		}

		opus, err := s.encoder.Encode(buf, frameSize, maxOpusFrameSize)
		if err != nil {
			return fmt.Errorf("encoding opus: %w", err)
		}
		if len(opus) == 0 {
			continue
		}

		select {
		case s.send <- opus:
			s.mu.Lock()
			s.frames++
			s.mu.Unlock()
		case <-time.After(sendTimeout):
			return errSendTimeout
		case <-s.stop:
			return nil
		}
	}
}
