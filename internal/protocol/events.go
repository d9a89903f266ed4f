// Package protocol implements the line protocol spoken over the serial link.
//
// Outbound, every event is one JSON object followed by "\n". Every record
// carries a "type" tag and a "timestamp" (milliseconds since boot) plus the
// fields of its variant:
//
//	{"type":"pressedButton","buttonId":3,"timestamp":10234}
//	{"type":"status","active":true,"pressed":false,"firstButton":0,"timestamp":512}
//
// Inbound, the host sends one ASCII command per line: RESET, STATUS or
// CONFIG. Lines end with "\n" or "\r".
package protocol

import (
	"github.com/sweeney/quiz-buzzer/internal/logic"
)

// Version is reported in systemReady records.
const Version = "1.0.0"

// Error messages sent to the host.
const (
	MsgUnknownCommand = "Unknown command"
	MsgInvalidConfig  = "Configuration validation failed"
)

// EventType is the "type" tag of an outbound record.
type EventType string

const (
	TypeButtonPressed EventType = "pressedButton"
	TypeSystemReset   EventType = "systemReset"
	TypeSystemReady   EventType = "systemReady"
	TypeError         EventType = "error"
	TypeDebug         EventType = "debug"
	TypeStatus        EventType = "status"
	TypeConfig        EventType = "config"
)

// EventTypes lists every type tag that may appear on the wire.
var EventTypes = []EventType{
	TypeButtonPressed,
	TypeSystemReset,
	TypeSystemReady,
	TypeError,
	TypeDebug,
	TypeStatus,
	TypeConfig,
}

// Valid reports whether t is a known type tag.
func (t EventType) Valid() bool {
	for _, k := range EventTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Event is an outbound event. Implementations are the variant types below.
type Event interface {
	Record() Record
}

// ButtonPressed reports the first press since the last reset.
type ButtonPressed struct {
	ID        logic.ButtonID
	Timestamp logic.Millis
}

// Record implements Event.
func (e ButtonPressed) Record() Record {
	id := int(e.ID)
	return Record{Type: TypeButtonPressed, ButtonID: &id, Timestamp: e.Timestamp}
}

// SystemReset acknowledges a RESET command.
type SystemReset struct {
	Timestamp logic.Millis
}

// Record implements Event.
func (e SystemReset) Record() Record {
	return Record{Type: TypeSystemReset, Timestamp: e.Timestamp}
}

// SystemReady is sent once after startup.
type SystemReady struct {
	Timestamp logic.Millis
	Version   string
}

// Record implements Event.
func (e SystemReady) Record() Record {
	v := e.Version
	return Record{Type: TypeSystemReady, Version: &v, Timestamp: e.Timestamp}
}

// Error reports a problem to the host.
type Error struct {
	Message   string
	Timestamp logic.Millis
}

// Record implements Event.
func (e Error) Record() Record {
	m := e.Message
	return Record{Type: TypeError, Message: &m, Timestamp: e.Timestamp}
}

// Debug carries a diagnostic message. Only sent when debug output is enabled.
type Debug struct {
	Message   string
	Timestamp logic.Millis
}

// Record implements Event.
func (e Debug) Record() Record {
	m := e.Message
	return Record{Type: TypeDebug, Message: &m, Timestamp: e.Timestamp}
}

// Status answers a STATUS command.
type Status struct {
	Active      bool
	Pressed     bool
	FirstButton logic.ButtonID
	Timestamp   logic.Millis
}

// StatusFrom builds a Status from the scanner latch.
func StatusFrom(s logic.ScannerState, now logic.Millis) Status {
	return Status{
		Active:      s.Active,
		Pressed:     s.Pressed(),
		FirstButton: s.FirstPressed,
		Timestamp:   now,
	}
}

// Record implements Event.
func (e Status) Record() Record {
	active, pressed, first := e.Active, e.Pressed, int(e.FirstButton)
	return Record{
		Type:        TypeStatus,
		Active:      &active,
		Pressed:     &pressed,
		FirstButton: &first,
		Timestamp:   e.Timestamp,
	}
}

// Config answers a CONFIG command.
type Config struct {
	ButtonCount int
	LEDEnabled  bool
	Timestamp   logic.Millis
}

// Record implements Event.
func (e Config) Record() Record {
	n, led := e.ButtonCount, e.LEDEnabled
	return Record{Type: TypeConfig, ButtonCount: &n, LEDEnabled: &led, Timestamp: e.Timestamp}
}
