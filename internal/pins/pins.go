// Package pins holds the static button/LED pin table and validates it.
// The table is built once at startup and never changes while the daemon runs.
package pins

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Limits of the pin table.
const (
	MaxButtons = 6
	MinPin     = 0
	MaxPin     = 27 // highest header GPIO offset on gpiochip0

	NoLED = -1

	DefaultDebounceMs = 50
)

// Default wiring (gpiochip0 line offsets).
var (
	DefaultButtonPins = []int{5, 6, 13, 19, 26, 21}
	DefaultLEDPins    = []int{17, 27, 22, 23, 24, 25}
)

var (
	ErrButtonCount  = errors.New("invalid button count")
	ErrButtonIndex  = errors.New("invalid button index")
	ErrPinRange     = errors.New("pin out of range")
	ErrDuplicatePin = errors.New("duplicate button pin")
	ErrLEDConflict  = errors.New("led pin conflicts with button pin")
)

// ConfigError describes an unsafe or ambiguous pin assignment.
type ConfigError struct {
	Index int // slot index, -1 when not slot specific
	Pin   int
	Err   error
}

// Error implements error.
func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("button %d (pin %d): %v", e.Index, e.Pin, e.Err)
}

// Unwrap returns the sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ButtonSlot maps one logical button to its physical pins.
type ButtonSlot struct {
	Index  int // 0-based
	Pin    int
	LEDPin int // NoLED when the slot has no LED
}

// ID returns the 1-based button id reported to the host.
func (s ButtonSlot) ID() int {
	return s.Index + 1
}

// HasLED reports whether the slot drives an LED.
func (s ButtonSlot) HasLED() bool {
	return s.LEDPin != NoLED
}

// Config is the full pin configuration.
type Config struct {
	Buttons    []ButtonSlot
	LEDEnabled bool
	DebounceMs int
	Debug      bool
}

// Default returns the compiled-in configuration.
func Default() Config {
	c := Config{
		LEDEnabled: true,
		DebounceMs: DefaultDebounceMs,
	}
	c.Buttons = Slots(DefaultButtonPins, DefaultLEDPins)
	return c
}

// Slots builds a slot table from parallel pin lists. Missing LED entries
// become NoLED.
func Slots(buttonPins, ledPins []int) []ButtonSlot {
	slots := make([]ButtonSlot, len(buttonPins))
	for i, p := range buttonPins {
		led := NoLED
		if i < len(ledPins) {
			led = ledPins[i]
		}
		slots[i] = ButtonSlot{Index: i, Pin: p, LEDPin: led}
	}
	return slots
}

// ButtonCount returns the number of configured buttons.
func (c Config) ButtonCount() int {
	return len(c.Buttons)
}

// Debounce returns the debounce window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ButtonPins returns the input pins in slot order.
func (c Config) ButtonPins() []int {
	out := make([]int, len(c.Buttons))
	for i, s := range c.Buttons {
		out[i] = s.Pin
	}
	return out
}

// LEDPins returns the distinct LED pins in use. Empty when LED feedback is
// disabled. Several slots may share one LED pin.
func (c Config) LEDPins() []int {
	if !c.LEDEnabled {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, s := range c.Buttons {
		if !s.HasLED() || seen[s.LEDPin] {
			continue
		}
		seen[s.LEDPin] = true
		out = append(out, s.LEDPin)
	}
	return out
}

// Validate checks the table for unsafe wiring.
func (c Config) Validate() error {
	if len(c.Buttons) == 0 || len(c.Buttons) > MaxButtons {
		return &ConfigError{Index: -1, Err: fmt.Errorf("%w: %d (want 1..%d)", ErrButtonCount, len(c.Buttons), MaxButtons)}
	}
	if c.DebounceMs < 0 {
		return &ConfigError{Index: -1, Err: fmt.Errorf("negative debounce %dms", c.DebounceMs)}
	}

	used := make(map[int]int, len(c.Buttons))
	for i, s := range c.Buttons {
		if s.Index != i {
			return &ConfigError{Index: s.Index, Pin: s.Pin, Err: ErrButtonIndex}
		}
		if !inRange(s.Pin) {
			return &ConfigError{Index: i, Pin: s.Pin, Err: ErrPinRange}
		}
		if prev, ok := used[s.Pin]; ok {
			return &ConfigError{Index: i, Pin: s.Pin, Err: fmt.Errorf("%w: also used by button %d", ErrDuplicatePin, prev)}
		}
		used[s.Pin] = i
	}

	if !c.LEDEnabled {
		return nil
	}
	for i, s := range c.Buttons {
		if !s.HasLED() {
			continue
		}
		if !inRange(s.LEDPin) {
			return &ConfigError{Index: i, Pin: s.LEDPin, Err: ErrPinRange}
		}
		if owner, ok := used[s.LEDPin]; ok {
			return &ConfigError{Index: i, Pin: s.LEDPin, Err: fmt.Errorf("%w: button %d", ErrLEDConflict, owner)}
		}
	}
	return nil
}

func inRange(pin int) bool {
	return pin >= MinPin && pin <= MaxPin
}

// ParsePinList parses a comma separated list such as "5,6,13".
func ParsePinList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse pin %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
