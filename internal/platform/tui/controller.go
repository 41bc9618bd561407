package tui

import (
	"time"

	"github.com/vovakirdan/dragonslayer/internal/hw"
)

// Terminals report key presses but not releases, so every press holds its
// input for a short window. Auto-repeat keeps extending the window while a
// key is held down.
const (
	defaultStickHold  = 120 * time.Millisecond
	defaultButtonHold = 60 * time.Millisecond
)

// Controller drives the virtual joystick and button from key actions.
type Controller struct {
	joystick *hw.VirtualJoystick
	button   *hw.VirtualButton

	stickHold  time.Duration
	buttonHold time.Duration

	leftUntil   time.Time
	rightUntil  time.Time
	jumpUntil   time.Time
	buttonUntil time.Time
}

// NewController creates a controller for the given devices.
func NewController(joystick *hw.VirtualJoystick, button *hw.VirtualButton) *Controller {
	return &Controller{
		joystick:   joystick,
		button:     button,
		stickHold:  defaultStickHold,
		buttonHold: defaultButtonHold,
	}
}

// Apply registers a key action at now and updates the devices.
func (c *Controller) Apply(a Action, now time.Time) {
	switch a {
	case ActionLeft:
		c.leftUntil = now.Add(c.stickHold)
		c.rightUntil = time.Time{}
	case ActionRight:
		c.rightUntil = now.Add(c.stickHold)
		c.leftUntil = time.Time{}
	case ActionJump:
		c.jumpUntil = now.Add(c.stickHold)
	case ActionButton:
		c.buttonUntil = now.Add(c.buttonHold)
	}
	c.Update(now)
}

// Update releases expired holds.
func (c *Controller) Update(now time.Time) {
	x, y := hw.AxisCenter, hw.AxisCenter
	if now.Before(c.leftUntil) {
		x = hw.AxisMin
	}
	if now.Before(c.rightUntil) {
		x = hw.AxisMax
	}
	if now.Before(c.jumpUntil) {
		y = hw.AxisMin
	}
	c.joystick.Set(x, y)

	if now.Before(c.buttonUntil) {
		c.button.Press()
	} else {
		c.button.Release()
	}
}

// Reset centres the stick and releases the button.
func (c *Controller) Reset() {
	c.leftUntil, c.rightUntil, c.jumpUntil, c.buttonUntil = time.Time{}, time.Time{}, time.Time{}, time.Time{}
	c.joystick.Center()
	c.button.Release()
}
