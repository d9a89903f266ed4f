//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO drives buttons and LEDs through the Linux GPIO character device.
type RealIO struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
}

// NewRealIO requests the given input and output lines on chipName.
// Inputs are requested with pull-up and active-low so that a grounded
// button reads 1. Outputs start low (LED off).
func NewRealIO(chipName string, inputs, outputs []int) (*RealIO, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealIO{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line, len(inputs)),
		outputs: make(map[int]*gpiocdev.Line, len(outputs)),
	}

	for _, pin := range inputs {
		l, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request button pin %d: %w", pin, err)
		}
		r.inputs[pin] = l
	}

	for _, pin := range outputs {
		if _, ok := r.outputs[pin]; ok {
			continue
		}
		l, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request led pin %d: %w", pin, err)
		}
		r.outputs[pin] = l
	}

	return r, nil
}

// ReadInput returns true when the button on pin is pressed.
func (r *RealIO) ReadInput(pin int) (bool, error) {
	l, ok := r.inputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not requested as input", pin)
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v == 1, nil
}

// WriteOutput drives the LED on pin.
func (r *RealIO) WriteOutput(pin int, on bool) error {
	l, ok := r.outputs[pin]
	if !ok {
		return fmt.Errorf("pin %d not requested as output", pin)
	}
	v := 0
	if on {
		v = 1
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close releases GPIO resources.
// LED lines are switched off and returned to inputs with pull-down (matching
// Pi boot defaults) before closing so nothing is left driven after exit.
func (r *RealIO) Close() error {
	var errs []error

	for pin, l := range r.outputs {
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch off led pin %d: %w", pin, err))
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led pin %d: %w", pin, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin %d: %w", pin, err))
		}
	}
	for pin, l := range r.inputs {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin %d: %w", pin, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
