package uitag

import (
	"errors"
	"strings"
)

// ErrStreamFinished is returned when a chunk arrives after Finish.
var ErrStreamFinished = errors.New("uitag: stream already finished")

// Stream is the state of one in-flight assistant message: an append-only
// buffer plus a completion flag. The zero value is an empty open stream.
//
// A Stream has a single writer. It is not safe for concurrent use.
type Stream struct {
	buf      strings.Builder
	complete bool
}

// Append adds a chunk to the buffer and returns the plan for the new state.
func (s *Stream) Append(chunk string) (Plan, error) {
	if s.complete {
		return Plan{}, ErrStreamFinished
	}
	s.buf.WriteString(chunk)
	return Reconcile(s.buf.String(), false), nil
}

// Plan returns the plan for the current buffer without changing it.
func (s *Stream) Plan() Plan {
	return Reconcile(s.buf.String(), s.complete)
}

// Finish marks the stream complete and returns the permanent content of the
// message. Calling it again returns the same content.
func (s *Stream) Finish() Parsed {
	s.complete = true
	return Parse(s.buf.String())
}

// Buffer returns the raw text received so far.
func (s *Stream) Buffer() string { return s.buf.String() }

// Len returns the buffer length in bytes.
func (s *Stream) Len() int { return s.buf.Len() }

// Complete reports whether Finish has been called.
func (s *Stream) Complete() bool { return s.complete }

// Reset empties the buffer and reopens the stream for a new message.
func (s *Stream) Reset() {
	s.buf.Reset()
	s.complete = false
}
