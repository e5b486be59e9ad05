package bot

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrStreamClosed is returned when publishing to a closed EventStream.
var ErrStreamClosed = errors.New("event stream closed")

// EventStream carries gateway events from the connection callbacks to the
// dispatch loop, preserving arrival order. The buffer absorbs short bursts;
// when it fills, publishing blocks, which backpressures the gateway reader
// instead of reordering or dropping events.
type EventStream struct {
	events chan any
	done   chan struct{}
	closed atomic.Bool
}

func NewEventStream() *EventStream {
	return &EventStream{
		events: make(chan any, 256),
		done:   make(chan struct{}),
	}
}

func (s *EventStream) Publish(ctx context.Context, ev any) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EventStream) Next(ctx context.Context) (any, bool) {
	select {
	case ev, ok := <-s.events:
		return ev, ok
	case <-s.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (s *EventStream) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
}
