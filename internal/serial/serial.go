// Package serial opens the host link and moves inbound bytes to the main loop.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Defaults for the host link.
const (
	DefaultBaud = 9600
	// ReadTimeout bounds each Read so Pump notices cancellation.
	ReadTimeout = 50 * time.Millisecond
)

// ErrNoPort is returned by Detect when no candidate port exists.
var ErrNoPort = errors.New("no serial port found")

// Open opens name at baud, 8N1, with a bounded read timeout.
func Open(name string, baud int) (bugst.Port, error) {
	mode := &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	port, err := bugst.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return port, nil
}

// List returns the serial ports present on the system.
func List() ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// Detect picks the port to talk to. A preferred name wins when it is present;
// otherwise the first USB serial port is used.
func Detect(preferred string) (string, error) {
	ports, err := List()
	if err != nil {
		return "", err
	}
	return pick(ports, preferred)
}

func pick(ports []*enumerator.PortDetails, preferred string) (string, error) {
	if preferred != "" {
		for _, p := range ports {
			if p.Name == preferred {
				return p.Name, nil
			}
		}
	}
	for _, p := range ports {
		if p.IsUSB {
			return p.Name, nil
		}
	}
	if preferred != "" {
		return "", fmt.Errorf("%w: %s not present", ErrNoPort, preferred)
	}
	return "", ErrNoPort
}

// Pump reads r until ctx is cancelled or r fails, sending every non-empty
// chunk to out. A timed out read (0 bytes, nil error) is not an error.
// io.EOF ends the pump without error.
func Pump(ctx context.Context, r io.Reader, out chan<- []byte) error {
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-ctx.Done():
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}
