// Package ws is the websocket transport adapter. It owns the raw connection
// lifecycle and hands authenticated connections to the routing core.
package ws

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
)

// Sink buffers outbound frames between the routing core and one
// connection's write pump. Deliver never blocks: a full buffer or a closed
// sink fails immediately, which is the signal the router turns into an
// implicit disconnect.
type Sink struct {
	mu     sync.Mutex
	frames chan domain.OutboundFrame
	closed bool
}

func NewSink(bufferSize int) *Sink {
	return &Sink{frames: make(chan domain.OutboundFrame, bufferSize)}
}

func (s *Sink) Deliver(frame domain.OutboundFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSinkUnavailable
	}
	select {
	case s.frames <- frame:
		return nil
	default:
		return errors.ErrSinkUnavailable
	}
}

// Close releases the sink and ends the write pump. Idempotent.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
}

// Frames is the write pump's end of the buffer. The channel is closed when
// the sink is released.
func (s *Sink) Frames() <-chan domain.OutboundFrame {
	return s.frames
}
