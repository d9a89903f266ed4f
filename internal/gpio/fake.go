package gpio

import "sort"

// FakeIO is a test double with settable button levels and recorded LED writes.
type FakeIO struct {
	// Pressed holds the level returned by ReadInput for each pin.
	// Unset pins read as released.
	Pressed map[int]bool

	// Outputs holds the last value written to each output pin.
	Outputs map[int]bool

	// Writes records every WriteOutput call in order.
	Writes []Write

	// Reads counts ReadInput calls.
	Reads int

	// ReadError, if set, will be returned by ReadInput.
	ReadError error

	// WriteError, if set, will be returned by WriteOutput.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// Write is one recorded output change.
type Write struct {
	Pin int
	On  bool
}

// NewFakeIO creates a FakeIO with every button released.
func NewFakeIO() *FakeIO {
	return &FakeIO{
		Pressed: make(map[int]bool),
		Outputs: make(map[int]bool),
	}
}

// Set changes the level of an input pin.
func (f *FakeIO) Set(pin int, pressed bool) {
	f.Pressed[pin] = pressed
}

// ReadInput returns the level set for pin.
func (f *FakeIO) ReadInput(pin int) (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Pressed[pin], nil
}

// WriteOutput records the write.
func (f *FakeIO) WriteOutput(pin int, on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Outputs[pin] = on
	f.Writes = append(f.Writes, Write{Pin: pin, On: on})
	return nil
}

// Close marks the fake as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// Lit returns the output pins currently on, sorted.
func (f *FakeIO) Lit() []int {
	var out []int
	for pin, on := range f.Outputs {
		if on {
			out = append(out, pin)
		}
	}
	sort.Ints(out)
	return out
}

// Reset clears recorded writes and errors. Input levels are kept.
func (f *FakeIO) Reset() {
	f.Outputs = make(map[int]bool)
	f.Writes = nil
	f.Reads = 0
	f.ReadError = nil
	f.WriteError = nil
	f.Closed = false
}
