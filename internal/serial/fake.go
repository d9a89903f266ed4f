package serial

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// FakePort is an in-memory serial port for tests. Inbound chunks are queued
// with Feed; everything written is kept in order.
type FakePort struct {
	mu     sync.Mutex
	in     [][]byte
	out    bytes.Buffer
	writes int

	writeErr error
	closed   bool
}

// NewFakePort creates an open FakePort.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Feed queues bytes to be returned by Read.
func (f *FakePort) Feed(p []byte) {
	f.mu.Lock()
	f.in = append(f.in, append([]byte(nil), p...))
	f.mu.Unlock()
}

// Read returns the next queued chunk. With nothing queued it behaves like a
// timed out serial read and returns (0, nil) after a short pause; once
// closed it returns io.EOF.
func (f *FakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.in) > 0 {
		chunk := f.in[0]
		n := copy(p, chunk)
		if n < len(chunk) {
			f.in[0] = chunk[n:]
		} else {
			f.in = f.in[1:]
		}
		f.mu.Unlock()
		return n, nil
	}
	closed := f.closed
	f.mu.Unlock()

	if closed {
		return 0, io.EOF
	}
	time.Sleep(time.Millisecond)
	return 0, nil
}

// Write records p.
func (f *FakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes++
	return f.out.Write(p)
}

// SetWriteError makes subsequent writes fail with err. nil clears it.
func (f *FakePort) SetWriteError(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// Close marks the port closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakePort) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Written returns everything written so far.
func (f *FakePort) Written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

// Lines returns the written output split into lines, without terminators.
func (f *FakePort) Lines() []string {
	s := f.Written()
	if s == "" {
		return nil
	}
	lines := bytes.Split(bytes.TrimSuffix([]byte(s), []byte("\n")), []byte("\n"))
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l)
	}
	return out
}

// Writes returns the number of successful Write calls.
func (f *FakePort) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}
