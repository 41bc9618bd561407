package engine

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/game"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/sched"
	"github.com/vovakirdan/dragonslayer/internal/storage"
)

type memRecorder struct {
	mu     sync.Mutex
	rounds []storage.Round
}

func (r *memRecorder) SaveRound(round storage.Round) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, round)
	return int64(len(r.rounds)), nil
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rounds)
}

type rig struct {
	engine   *Engine
	clock    *sched.FakeClock
	joystick *hw.VirtualJoystick
	button   *hw.VirtualButton
	buzzer   *hw.RecordingBuzzer
	display  *hw.TextDisplay
	recorder *memRecorder
}

func newRig(t *testing.T, addr string) *rig {
	t.Helper()
	clock := sched.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	r := &rig{
		clock:    clock,
		joystick: hw.NewVirtualJoystick(),
		button:   hw.NewVirtualButton(),
		buzzer:   hw.NewRecordingBuzzer(clock.Now),
		display:  hw.NewTextDisplay(),
		recorder: &memRecorder{},
	}
	e, err := New(Options{
		Config:   config.Default(),
		Seed:     3,
		HTTPAddr: addr,
		Joystick: r.joystick,
		Button:   r.button,
		Buzzer:   r.buzzer,
		Display:  r.display,
		Recorder: r.recorder,
		Clock:    clock,
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatal(err)
	}
	r.engine = e
	return r
}

// start runs the engine in the background and returns a stop function that
// cancels it and returns Run's error.
func (r *rig) start(t *testing.T) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.engine.Run(ctx) }()

	var once sync.Once
	var err error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case err = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("engine did not stop")
			}
		})
		return err
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRequiresDevices(t *testing.T) {
	if _, err := New(Options{Config: config.Default(), Logger: log.New(io.Discard)}); err == nil {
		t.Error("expected error without devices")
	}

	cfg := config.Default()
	cfg.Sound.Tunes = map[string][]config.Note{"roar": {{Freq: 100, Duration: time.Millisecond}}}
	_, err := New(Options{
		Config:   cfg,
		Joystick: hw.NewVirtualJoystick(),
		Button:   hw.NewVirtualButton(),
		Buzzer:   hw.NewRecordingBuzzer(nil),
		Display:  hw.NewTextDisplay(),
		Logger:   log.New(io.Discard),
	})
	if err == nil {
		t.Error("expected error for unknown tune")
	}
}

func TestIdleLoopAndShutdown(t *testing.T) {
	r := newRig(t, "")
	stop := r.start(t)

	waitFor(t, "idle ticks", func() bool { return r.engine.Status().Ticks > 10 })
	st := r.engine.Status()
	if st.State.Started {
		t.Error("round started without a press")
	}
	if st.Overlay != "" || r.display.Shows() != 0 {
		t.Error("overlay shown before the first press")
	}

	if err := stop(); err != nil {
		t.Errorf("Run() = %v, expected clean shutdown", err)
	}
	if !r.buzzer.Released() {
		t.Error("buzzer not released on shutdown")
	}
}

func TestPressStartsRoundAndTimer(t *testing.T) {
	r := newRig(t, "")
	r.start(t)

	r.button.Press()
	waitFor(t, "round start", func() bool { return r.engine.Status().State.Started })
	r.button.Release()

	waitFor(t, "overlay", func() bool { return r.display.Text() != "" })
	if text := r.display.Text(); !strings.Contains(text, ":") {
		t.Errorf("overlay = %q", text)
	}

	// Holding right moves the hero.
	r.joystick.Set(hw.AxisMax, hw.AxisCenter)
	waitFor(t, "movement", func() bool {
		s := r.engine.Status().State
		return s.GameOver || s.Player.X > config.Default().Player.StartX
	})
}

func TestRoundIsRecordedAndSounds(t *testing.T) {
	r := newRig(t, "")
	stop := r.start(t)

	r.button.Press()
	waitFor(t, "round start", func() bool { return r.engine.Status().State.Started })
	r.button.Release()

	// Walk into the dragon; the round ends either by hitting it five times
	// or by running into a fireball.
	r.joystick.Set(hw.AxisMax, hw.AxisCenter)
	waitFor(t, "round end", func() bool { return r.engine.Status().State.GameOver })
	waitFor(t, "recorded round", func() bool { return r.recorder.count() == 1 })

	st := r.engine.Status().State
	// The outcome tune ends on 1047Hz for a win and 294Hz for a loss.
	finalTone := 294
	if st.Win {
		finalTone = 1047
	}
	waitFor(t, "outcome tune", func() bool {
		tones := r.buzzer.Tones()
		return len(tones) > 0 && tones[len(tones)-1] == finalTone
	})

	if err := stop(); err != nil {
		t.Fatal(err)
	}

	round := r.recorder.rounds[0]
	if round.Won != st.Win || round.DragonHealth != st.Dragon.Health || round.Ticks == 0 {
		t.Errorf("recorded %+v for final state win=%v health=%d", round, st.Win, st.Dragon.Health)
	}
}

func TestViewerStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	r := newRig(t, addr)
	r.start(t)

	var conn *websocket.Conn
	waitFor(t, "viewer server", func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		return err == nil
	})
	defer conn.Close()

	read := func() map[string]any {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		return m
	}

	if m := read(); m["t"] != "u" {
		t.Fatalf("first message = %v", m)
	}
	waitFor(t, "viewer attached", func() bool { return r.engine.Status().Viewer })

	r.button.Press()
	for {
		if m := read(); m["st"] == true {
			break
		}
	}
}

func TestListenFailureIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	r := newRig(t, ln.Addr().String())
	if err := r.engine.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
	if !r.buzzer.Released() {
		t.Error("buzzer not released after startup failure")
	}
}

func TestStatusIsACopy(t *testing.T) {
	r := newRig(t, "")
	st := r.engine.Status()
	st.State.Fireballs[0] = game.Fireball{Active: true}
	if r.engine.Status().State.Fireballs[0].Active {
		t.Error("Status shares state with the engine")
	}
}
