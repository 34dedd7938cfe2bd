// internal/stream/stream.go

package stream

import (
	"fmt"
	"io"

	"github.com/weftrun/weft/internal/sched"
)

// Stream yields sequential chunks of an io.Reader as a resumable sequence
// of byte blobs (§6: "ByteStream reader... finite for file/URL sources").
// It does not read anything until Next is called from inside a task body,
// and it yields between reads so a slow source never monopolizes the
// single thread.
type Stream struct {
	r         io.Reader
	chunkSize int
	done      bool
}

// New wraps r, reading up to chunkSize bytes at a time.
func New(r io.Reader, chunkSize int) *Stream {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &Stream{r: r, chunkSize: chunkSize}
}

// Next reads one chunk, yielding via h before the read so callers chained
// behind a slow reader still give other tasks a turn. The second return
// value is false once the stream is exhausted.
func (s *Stream) Next(h *sched.H) ([]byte, bool, error) {
	if s.done {
		return nil, false, nil
	}
	h.Yield(sched.Signal{})

	buf := make([]byte, s.chunkSize)
	n, err := s.r.Read(buf)
	if n > 0 {
		chunk := buf[:n]
		if err == io.EOF {
			s.done = true
			return chunk, true, nil
		}
		if err != nil {
			s.done = true
			return chunk, true, fmt.Errorf("stream: read failed: %w", err)
		}
		return chunk, true, nil
	}
	s.done = true
	if err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("stream: read failed: %w", err)
	}
	return nil, false, nil
}

// ReadAll drains the stream to completion, cooperatively, concatenating
// every chunk it reads.
func ReadAll(h *sched.H, s *Stream) ([]byte, error) {
	var out []byte
	for {
		chunk, ok, err := s.Next(h)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, chunk...)
	}
}
