package music

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

var errClosed = errors.New("stream closed")

// FFmpeg decodes remote audio into 48kHz stereo s16le PCM
type FFmpeg struct {
	Path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

func (f *FFmpeg) args(url string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	}
}

// Open returns a stream for url. ffmpeg is not started until the first Read.
func (f *FFmpeg) Open(url string) io.ReadCloser {
	return &lazyStream{start: func() (process, error) {
		return startCommand(exec.Command(f.Path, f.args(url)...))
	}}
}

type process interface {
	io.Reader
	Kill() error
}

type command struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func startCommand(cmd *exec.Cmd) (process, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	return &command{cmd: cmd, stdout: stdout}, nil
}

func (c *command) Read(p []byte) (int, error) {
	return c.stdout.Read(p)
}

func (c *command) Kill() error {
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	return c.cmd.Wait()
}

type lazyStream struct {
	start func() (process, error)

	mu      sync.Mutex
	proc    process
	err     error
	started bool
	closed  bool
}

func (s *lazyStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errClosed
	}
	if !s.started {
		s.started = true
		s.proc, s.err = s.start()
	}
	proc, err := s.proc, s.err
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}
	return proc.Read(p)
}

// Close stops ffmpeg if it was ever started
func (s *lazyStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	proc, err := s.proc, s.err
	s.mu.Unlock()

	if proc == nil || err != nil {
		return nil
	}
	proc.Kill()
	return nil
}
