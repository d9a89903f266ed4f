//go:build !linux

package gpio

import "errors"

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(chipName string, inputs, outputs []int) (*RealIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadInput is not implemented on non-Linux platforms.
func (r *RealIO) ReadInput(pin int) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// WriteOutput is not implemented on non-Linux platforms.
func (r *RealIO) WriteOutput(pin int, on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealIO) Close() error {
	return nil
}
