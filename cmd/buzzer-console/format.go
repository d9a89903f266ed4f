package main

import (
	"bytes"
	"fmt"

	"github.com/sweeney/quiz-buzzer/internal/protocol"
)

// formatRecord renders one record for a human.
func formatRecord(r protocol.Record) string {
	prefix := fmt.Sprintf("[%8d] ", r.Timestamp)
	switch r.Type {
	case protocol.TypeButtonPressed:
		return prefix + fmt.Sprintf("BUTTON %d pressed first", deref(r.ButtonID))
	case protocol.TypeSystemReset:
		return prefix + "reset"
	case protocol.TypeSystemReady:
		return prefix + fmt.Sprintf("ready (version %s)", derefString(r.Version))
	case protocol.TypeError:
		return prefix + "ERROR: " + derefString(r.Message)
	case protocol.TypeDebug:
		return prefix + "debug: " + derefString(r.Message)
	case protocol.TypeStatus:
		return prefix + fmt.Sprintf("status: active=%v pressed=%v firstButton=%d",
			derefBool(r.Active), derefBool(r.Pressed), deref(r.FirstButton))
	case protocol.TypeConfig:
		return prefix + fmt.Sprintf("config: buttons=%d leds=%v",
			deref(r.ButtonCount), derefBool(r.LEDEnabled))
	}
	return prefix + string(r.Type)
}

// formatLine renders one received line. Lines that are not records are
// shown as-is behind a marker.
func formatLine(line []byte, raw bool) string {
	if raw {
		return string(line)
	}
	r, err := protocol.DecodeRecord(line)
	if err != nil {
		return "? " + string(line)
	}
	return formatRecord(r)
}

// lineReader splits inbound chunks into lines.
type lineReader struct {
	buf []byte
}

// feed appends p and returns every complete non-empty line, without
// terminators.
func (l *lineReader) feed(p []byte) [][]byte {
	l.buf = append(l.buf, p...)
	var lines [][]byte
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			return lines
		}
		line := bytes.TrimRight(l.buf[:i], "\r")
		if len(line) > 0 {
			lines = append(lines, append([]byte(nil), line...))
		}
		l.buf = l.buf[i+1:]
	}
}

// watch prints every line received on chunks until the channel is closed.
func watch(chunks <-chan []byte, raw bool, print func(string)) {
	var lr lineReader
	for p := range chunks {
		for _, line := range lr.feed(p) {
			print(formatLine(line, raw))
		}
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool) bool {
	return p != nil && *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
