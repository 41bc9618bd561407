package broadcast

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/game"
)

// ErrSubscriberBusy is returned to a viewer that connects while another one
// is attached.
var ErrSubscriberBusy = errors.New("broadcast: " + RejectMessage)

// Subscriber receives encoded messages. Send must not block on the network;
// an error means the subscriber is gone.
type Subscriber interface {
	Send(msg []byte) error
	Close() error
}

// Broadcaster holds zero or one subscriber.
type Broadcaster struct {
	mu     sync.Mutex
	sub    Subscriber
	logger *log.Logger
}

// New creates an empty broadcaster.
func New(logger *log.Logger) *Broadcaster {
	return &Broadcaster{logger: logger}
}

// Subscribe attaches sub and sends it snap right away. If a subscriber is
// already attached, sub gets one error payload, is closed, and
// ErrSubscriberBusy is returned; the existing subscriber is not touched.
func (b *Broadcaster) Subscribe(sub Subscriber, snap game.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		_ = sub.Send(EncodeError(RejectMessage))
		_ = sub.Close()
		return ErrSubscriberBusy
	}

	msg, err := EncodeUpdate(snap)
	if err != nil {
		return err
	}
	if err := sub.Send(msg); err != nil {
		_ = sub.Close()
		return err
	}
	b.sub = sub
	return nil
}

// Unsubscribe detaches sub if it is the current subscriber.
func (b *Broadcaster) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub == sub {
		b.sub = nil
	}
}

// Attached reports whether a subscriber is attached.
func (b *Broadcaster) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sub != nil
}

// Publish sends snap to the subscriber, if any. A failed send drops and
// closes the subscriber; it is never reported to the caller.
func (b *Broadcaster) Publish(snap game.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub == nil {
		return
	}

	msg, err := EncodeUpdate(snap)
	if err != nil {
		b.logger.Error("dropping update", "error", err)
		return
	}
	if err := b.sub.Send(msg); err != nil {
		b.logger.Debug("subscriber dropped", "error", err)
		_ = b.sub.Close()
		b.sub = nil
	}
}
