package main

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/engine"
	"github.com/vovakirdan/dragonslayer/internal/hw"
	"github.com/vovakirdan/dragonslayer/internal/hw/speaker"
	"github.com/vovakirdan/dragonslayer/internal/storage"
)

// cabinet is an engine wired to virtual controls and the round store.
type cabinet struct {
	engine   *engine.Engine
	joystick *hw.VirtualJoystick
	button   *hw.VirtualButton
	store    *storage.Store
}

// newCabinet builds the engine. With sound enabled the buzzer plays through
// the sound card; otherwise tones are logged.
func newCabinet(tuning config.Config, httpAddr string, sound bool, logger *log.Logger) (*cabinet, error) {
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		return nil, err
	}

	var buzzer hw.Buzzer = hw.NewLogBuzzer(logger)
	if sound {
		spk, err := speaker.New()
		if err != nil {
			logger.Warn("sound card unavailable, logging tones instead", "err", err)
		} else {
			buzzer = spk
		}
	}

	c := &cabinet{
		joystick: hw.NewVirtualJoystick(),
		button:   hw.NewVirtualButton(),
		store:    store,
	}
	c.engine, err = newEngine(engine.Options{
		Config:   tuning,
		Seed:     settings.Seed,
		HTTPAddr: httpAddr,
		Joystick: c.joystick,
		Button:   c.button,
		Buzzer:   buzzer,
		Display:  hw.NewLogDisplay(logger),
		Recorder: store,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

// newEngine builds the engine, releasing the buzzer if that fails. Once
// built, the engine releases it when Run returns.
func newEngine(opts engine.Options) (*engine.Engine, error) {
	e, err := engine.New(opts)
	if err != nil && opts.Buzzer != nil {
		if relErr := opts.Buzzer.Release(); relErr != nil && opts.Logger != nil {
			opts.Logger.Warn("buzzer release failed", "error", relErr)
		}
	}
	return e, err
}

func (c *cabinet) Close() error {
	return c.store.Close()
}
