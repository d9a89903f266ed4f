// Package gpio provides button input and LED output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads button inputs.
type Reader interface {
	// ReadInput returns the normalized level of an input pin.
	// Buttons are wired to ground with pull-ups, so a raw low reads as
	// pressed (true).
	ReadInput(pin int) (bool, error)
}

// Writer drives LED outputs.
type Writer interface {
	WriteOutput(pin int, on bool) error
}

// IO is the full physical I/O boundary.
type IO interface {
	Reader
	Writer

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device used on the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// Consumer is the label attached to requested lines.
const Consumer = "quiz-buzzer"
