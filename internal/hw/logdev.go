package hw

import (
	"github.com/charmbracelet/log"
)

// LogBuzzer reports tones to a logger. Headless servers use it in place of a
// physical buzzer.
type LogBuzzer struct {
	logger *log.Logger
}

// NewLogBuzzer creates a buzzer that logs at debug level.
func NewLogBuzzer(logger *log.Logger) *LogBuzzer {
	return &LogBuzzer{logger: logger}
}

// Tone implements Buzzer.
func (b *LogBuzzer) Tone(freq int, duty uint16) error {
	b.logger.Debug("buzzer tone", "freq", freq, "duty", duty)
	return nil
}

// Silence implements Buzzer.
func (b *LogBuzzer) Silence() error {
	return nil
}

// Release implements Buzzer.
func (b *LogBuzzer) Release() error {
	b.logger.Debug("buzzer released")
	return nil
}

// LogDisplay writes overlay refreshes to a logger.
type LogDisplay struct {
	logger *log.Logger
}

// NewLogDisplay creates a display that logs at debug level.
func NewLogDisplay(logger *log.Logger) *LogDisplay {
	return &LogDisplay{logger: logger}
}

// Show implements Display.
func (d *LogDisplay) Show(text string) error {
	d.logger.Debug("display", "text", text)
	return nil
}
