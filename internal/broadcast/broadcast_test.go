package broadcast

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/game"
)

type fakeSubscriber struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   error
	closed bool
}

func (f *fakeSubscriber) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSubscriber) last(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		t.Fatal("no messages received")
	}
	var m map[string]any
	if err := json.Unmarshal(f.msgs[len(f.msgs)-1], &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func snapshot() game.State {
	return game.NewState(config.Default(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestEncodeUpdateKeys(t *testing.T) {
	s := snapshot()
	s.Started = true
	s.Fireballs[1] = game.Fireball{X: 300, Y: 576, Active: true}

	b, err := EncodeUpdate(s)
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"t":"u","px":40,"py":576,"dx":1360,"dy":544,"da":true,"dh":5,` +
		`"fb":[{"x":0,"y":0,"a":false},{"x":300,"y":576,"a":true},{"x":0,"y":0,"a":false}],` +
		`"go":false,"win":false,"st":true}`
	if string(b) != expected {
		t.Errorf("EncodeUpdate() =\n%s\nexpected\n%s", b, expected)
	}

	if got := string(EncodeError(RejectMessage)); got != `{"t":"e","m":"single player supported"}` {
		t.Errorf("EncodeError() = %s", got)
	}
}

func TestSubscribeSendsCurrentState(t *testing.T) {
	b := New(log.New(io.Discard))
	s := snapshot()
	s.Dragon.Health = 3

	sub := &fakeSubscriber{}
	if err := b.Subscribe(sub, s); err != nil {
		t.Fatal(err)
	}
	if !b.Attached() {
		t.Error("subscriber not attached")
	}
	if m := sub.last(t); m["t"] != "u" || m["dh"] != float64(3) {
		t.Errorf("initial message = %v", m)
	}
}

func TestSecondSubscriberRejected(t *testing.T) {
	b := New(log.New(io.Discard))
	first := &fakeSubscriber{}
	second := &fakeSubscriber{}

	if err := b.Subscribe(first, snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := b.Subscribe(second, snapshot()); !errors.Is(err, ErrSubscriberBusy) {
		t.Fatalf("Subscribe() = %v, expected ErrSubscriberBusy", err)
	}

	if second.count() != 1 || !second.closed {
		t.Errorf("rejected subscriber got %d messages, closed=%v", second.count(), second.closed)
	}
	if m := second.last(t); m["t"] != "e" || m["m"] != RejectMessage {
		t.Errorf("rejection = %v", m)
	}

	// The first subscriber keeps receiving updates.
	b.Publish(snapshot())
	if first.count() != 2 || first.closed {
		t.Errorf("first subscriber got %d messages, closed=%v", first.count(), first.closed)
	}
	if second.count() != 1 {
		t.Error("rejected subscriber received an update")
	}
}

func TestPublishDropsFailedSubscriber(t *testing.T) {
	b := New(log.New(io.Discard))
	sub := &fakeSubscriber{}
	if err := b.Subscribe(sub, snapshot()); err != nil {
		t.Fatal(err)
	}

	sub.fail = errors.New("connection reset")
	b.Publish(snapshot())
	if b.Attached() || !sub.closed {
		t.Fatalf("failed subscriber still attached=%v closed=%v", b.Attached(), sub.closed)
	}

	// Further publishes are no-ops.
	b.Publish(snapshot())

	// A later viewer gets the current state, not the initial one.
	current := snapshot()
	current.Started = true
	current.Player.X = 612
	current.Dragon.Health = 2

	late := &fakeSubscriber{}
	if err := b.Subscribe(late, current); err != nil {
		t.Fatal(err)
	}
	m := late.last(t)
	if m["px"] != float64(612) || m["dh"] != float64(2) || m["st"] != true {
		t.Errorf("late subscriber got %v", m)
	}
}

func TestUnsubscribeOnlyCurrent(t *testing.T) {
	b := New(log.New(io.Discard))
	sub := &fakeSubscriber{}
	other := &fakeSubscriber{}
	if err := b.Subscribe(sub, snapshot()); err != nil {
		t.Fatal(err)
	}

	b.Unsubscribe(other)
	if !b.Attached() {
		t.Fatal("unsubscribing a stranger detached the subscriber")
	}
	b.Unsubscribe(sub)
	if b.Attached() {
		t.Error("subscriber still attached")
	}
}

func TestSubscribeInitialSendFailure(t *testing.T) {
	b := New(log.New(io.Discard))
	sub := &fakeSubscriber{fail: errors.New("gone")}
	if err := b.Subscribe(sub, snapshot()); err == nil {
		t.Fatal("expected error")
	}
	if b.Attached() {
		t.Error("dead subscriber was attached")
	}
}

func TestChannelSubscriberDropsOldest(t *testing.T) {
	s := NewChannelSubscriber(2)
	for _, m := range []string{"a", "b", "c"} {
		if err := s.Send([]byte(m)); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	for len(s.Messages()) > 0 {
		got = append(got, string(<-s.Messages()))
	}
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("drained %v, expected [b c]", got)
	}

	_ = s.Close()
	_ = s.Close()
	if err := s.Send([]byte("d")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, expected ErrClosed", err)
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done not closed")
	}
}
