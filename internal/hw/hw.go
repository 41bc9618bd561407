// Package hw defines the cabinet's hardware boundary: a two-axis analog
// joystick, an active-low push button, a PWM buzzer and a small text display.
// Drivers live outside the game loop; the loop only sees these interfaces.
package hw

import "errors"

// Axis readings are 12-bit.
const (
	AxisMin    = 0
	AxisMax    = 4095
	AxisCenter = 2048
)

// Button levels. The button pulls the line low when pressed.
const (
	LevelPressed  = 0
	LevelReleased = 1
)

// DutyOff silences a PWM channel.
const DutyOff uint16 = 0

// ErrReleased is returned by a buzzer used after Release.
var ErrReleased = errors.New("hw: device released")

// Joystick is a two-axis analog stick.
type Joystick interface {
	// ReadAxes performs one conversion of each axis.
	ReadAxes() (x, y int, err error)
}

// Button is a digital input.
type Button interface {
	Level() (int, error)
}

// Buzzer is a PWM tone output.
type Buzzer interface {
	// Tone drives the buzzer at freq Hz with the given duty (0..65535).
	Tone(freq int, duty uint16) error
	// Silence sets the duty to zero.
	Silence() error
	// Release silences the output and frees it. Further tones fail.
	Release() error
}

// Display is the small overlay screen that shows the session timer.
type Display interface {
	Show(text string) error
}
