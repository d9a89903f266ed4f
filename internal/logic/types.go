// Package logic contains the pure button debounce and first-press logic.
// This package has NO I/O of its own (no GPIO, serial, OS, or time.Sleep).
// Time is always injected as a Millis value.
package logic

import "time"

// Millis is a monotonic millisecond counter since boot. It wraps after
// about 49.7 days; differences computed with Since stay correct across
// the wrap.
type Millis uint32

// Since returns the elapsed time from earlier to m, wrap-safe.
func (m Millis) Since(earlier Millis) Millis {
	return m - earlier
}

// MillisSince converts a wall-clock instant into a Millis relative to boot.
func MillisSince(boot, t time.Time) Millis {
	return Millis(t.Sub(boot).Milliseconds())
}

// ButtonID is the 1-based id of a button as reported to the host.
type ButtonID int

// NoButton means no button has been pressed.
const NoButton ButtonID = 0

// ScannerState is the first-press latch.
type ScannerState struct {
	// Active is true while new presses are accepted.
	Active bool
	// FirstPressed is the latched winner, NoButton if none.
	FirstPressed ButtonID
}

// Pressed reports whether a first press has been latched.
func (s ScannerState) Pressed() bool {
	return s.FirstPressed != NoButton
}

// InputReader reads the normalized level of an input pin
// (true = pressed, polarity already handled by the reader).
type InputReader interface {
	ReadInput(pin int) (bool, error)
}
