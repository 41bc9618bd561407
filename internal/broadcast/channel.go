package broadcast

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("broadcast: subscriber closed")

// ChannelSubscriber is a Subscriber backed by a bounded channel. A transport
// goroutine drains Messages; when it falls behind, the oldest message is
// dropped so Send never blocks.
type ChannelSubscriber struct {
	msgs      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelSubscriber creates a subscriber buffering up to size messages.
func NewChannelSubscriber(size int) *ChannelSubscriber {
	if size < 1 {
		size = 16
	}
	return &ChannelSubscriber{
		msgs: make(chan []byte, size),
		done: make(chan struct{}),
	}
}

// Send queues msg without blocking.
func (s *ChannelSubscriber) Send(msg []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.msgs <- msg:
		return nil
	default:
	}

	// Full: drop the oldest and retry once
	select {
	case <-s.msgs:
	default:
	}
	select {
	case s.msgs <- msg:
	default:
	}
	return nil
}

// Messages returns the queue for the transport to drain.
func (s *ChannelSubscriber) Messages() <-chan []byte {
	return s.msgs
}

// Done is closed by Close.
func (s *ChannelSubscriber) Done() <-chan struct{} {
	return s.done
}

// Close marks the subscriber closed. Safe to call multiple times.
func (s *ChannelSubscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}
