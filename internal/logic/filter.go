package logic

// Filter debounces a single input.
//
// A raw change restarts the settle timer. The stable level follows the raw
// level only once the raw level has been unchanged for strictly longer than
// the delay, so a change observed exactly at the delay boundary is committed
// on the following sample.
type Filter struct {
	delay      Millis
	raw        bool
	stable     bool
	lastChange Millis
}

// NewFilter creates a filter in the released state.
func NewFilter(delay, now Millis) Filter {
	f := Filter{delay: delay}
	f.Reset(now)
	return f
}

// Sample feeds one raw reading and returns the stable level.
func (f *Filter) Sample(raw bool, now Millis) bool {
	if raw != f.raw {
		f.lastChange = now
		f.raw = raw
	}
	if now.Since(f.lastChange) > f.delay {
		f.stable = raw
	}
	return f.stable
}

// Reset forces the filter to released with the settle timer starting at now.
func (f *Filter) Reset(now Millis) {
	f.raw = false
	f.stable = false
	f.lastChange = now
}

// Stable returns the current debounced level.
func (f *Filter) Stable() bool {
	return f.stable
}

// Raw returns the last raw level seen.
func (f *Filter) Raw() bool {
	return f.raw
}

// Delay returns the debounce window.
func (f *Filter) Delay() Millis {
	return f.delay
}
