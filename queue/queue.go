package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"Volfbot/media"
	"Volfbot/voice"

	"github.com/Strum355/log"
	"github.com/samber/lo"
)

var (
	ErrQueueBusy  = errors.New("queue cannot be changed while playing")
	ErrNotPlaying = errors.New("nothing is playing")
)

// PlaybackError is reported when a media item fails part way through playback
type PlaybackError struct {
	Media *media.Media
	Err   error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playing %s: %v", e.Media.URL(), e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// VoiceControl hands the queue whatever connection its server currently holds, or nil
type VoiceControl func() voice.Connection

// Hooks are called without the queue lock held
type Hooks struct {
	OnPlay  func(m *media.Media)
	OnIdle  func()
	OnError func(err *PlaybackError)
}

// MediaQueue plays its items in order over the server's voice connection
type MediaQueue struct {
	mu         sync.Mutex
	items      []*media.Media
	index      int
	looping    bool
	playing    bool
	generation uint64

	control VoiceControl
	hooks   Hooks
}

func New(control VoiceControl, hooks Hooks) *MediaQueue {
	return &MediaQueue{control: control, hooks: hooks}
}

// Enqueue appends m and starts playback if the queue was idle.
// The item stays queued even when it could not be started.
func (q *MediaQueue) Enqueue(m *media.Media) error {
	q.mu.Lock()
	q.items = append(q.items, m)
	if q.playing {
		q.mu.Unlock()
		return nil
	}

	events, err := q.startLocked()
	q.mu.Unlock()

	q.fire(events)
	return err
}

// Stop ends the current playback and rewinds to the first item
func (q *MediaQueue) Stop() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.playing {
		return ErrNotPlaying
	}
	q.haltLocked()
	return nil
}

// Halt stops playback whatever state the queue is in
func (q *MediaQueue) Halt() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.haltLocked()
}

func (q *MediaQueue) haltLocked() {
	q.generation++
	q.playing = false
	q.index = 0
	if conn := q.control(); conn != nil {
		conn.Stop()
	}
}

// Clear drops every item. Only allowed while idle.
func (q *MediaQueue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.playing {
		return ErrQueueBusy
	}
	q.items = nil
	q.index = 0
	return nil
}

// Skip abandons the current item and moves on as if it had finished
func (q *MediaQueue) Skip() error {
	q.mu.Lock()
	if !q.playing {
		q.mu.Unlock()
		return ErrNotPlaying
	}

	q.generation++
	events, err := q.nextLocked()
	q.mu.Unlock()

	q.fire(events)
	return err
}

// advance is the completion continuation for playback generation gen
func (q *MediaQueue) advance(gen uint64, playErr error) {
	q.mu.Lock()
	if gen != q.generation || !q.playing {
		q.mu.Unlock()
		return
	}

	var events []func()
	if playErr != nil {
		perr := &PlaybackError{Media: q.items[q.index], Err: playErr}
		log.WithError(perr).Error("Playback failed")
		if q.hooks.OnError != nil {
			events = append(events, func() { q.hooks.OnError(perr) })
		}
	}

	next, _ := q.nextLocked()
	q.mu.Unlock()

	q.fire(append(events, next...))
}

// nextLocked moves the cursor forward and starts whatever is there
func (q *MediaQueue) nextLocked() ([]func(), error) {
	q.index++
	if !q.hasMediaLocked() {
		if !q.looping || len(q.items) == 0 {
			return q.idleLocked(), nil
		}
		q.index = 0
	}
	return q.startLocked()
}

func (q *MediaQueue) idleLocked() []func() {
	q.playing = false
	if conn := q.control(); conn != nil {
		conn.Stop()
	}
	if q.hooks.OnIdle == nil {
		return nil
	}
	return []func(){q.hooks.OnIdle}
}

// startLocked plays items[index]. Items that cannot be opened are reported and skipped.
func (q *MediaQueue) startLocked() ([]func(), error) {
	var events []func()

	for attempts := 0; q.hasMediaLocked() && attempts < len(q.items); attempts++ {
		conn := q.control()
		if conn == nil {
			q.playing = false
			return events, voice.ErrNotConnected
		}

		current := q.items[q.index]
		stream, err := current.Play()
		if err == nil {
			q.generation++
			gen := q.generation
			err = conn.Play(stream, func(err error) { q.advance(gen, err) })
		}
		if err == nil {
			q.playing = true
			log.Info(fmt.Sprintf("Playing %s", current.URL()))
			if q.hooks.OnPlay != nil {
				events = append(events, func() { q.hooks.OnPlay(current) })
			}
			return events, nil
		}

		perr := &PlaybackError{Media: current, Err: err}
		log.WithError(perr).Error("Failed to start playback")
		if q.hooks.OnError != nil {
			events = append(events, func() { q.hooks.OnError(perr) })
		}

		q.index++
		if !q.hasMediaLocked() && q.looping {
			q.index = 0
		}
	}

	return append(events, q.idleLocked()...), nil
}

func (q *MediaQueue) fire(events []func()) {
	for _, event := range events {
		event()
	}
}

func (q *MediaQueue) hasMediaLocked() bool {
	return len(q.items) > 0 && q.index < len(q.items)
}

// HasMedia reports whether the cursor points at an item
func (q *MediaQueue) HasMedia() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hasMediaLocked()
}

// IsPlaying reports whether the voice connection is currently sending audio
func (q *MediaQueue) IsPlaying() bool {
	conn := q.control()
	return conn != nil && conn.IsPlaying()
}

// CurrentMedia is the item under the cursor, or nil
func (q *MediaQueue) CurrentMedia() *media.Media {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.hasMediaLocked() {
		return nil
	}
	return q.items[q.index]
}

func (q *MediaQueue) SetLooping(looping bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.looping = looping
}

func (q *MediaQueue) Looping() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.looping
}

// Items returns a copy of the queued items
func (q *MediaQueue) Items() []*media.Media {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]*media.Media, len(q.items))
	copy(items, q.items)
	return items
}

func (q *MediaQueue) Index() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.index
}

func (q *MediaQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// TotalLength sums the length of every queued item
func (q *MediaQueue) TotalLength() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return lo.SumBy(q.items, func(m *media.Media) time.Duration {
		return m.Metadata().Length()
	})
}
