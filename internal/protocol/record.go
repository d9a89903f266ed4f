package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sweeney/quiz-buzzer/internal/logic"
)

// ErrUnknownRecord is returned by DecodeRecord for an unrecognised type tag.
var ErrUnknownRecord = errors.New("unknown record type")

// Record is the wire shape of every outbound event. Variant fields are nil
// when they do not belong to the record's type, so zero values such as
// "firstButton":0 are still written for the types that carry them.
type Record struct {
	Type        EventType    `json:"type"`
	ButtonID    *int         `json:"buttonId,omitempty"`
	Message     *string      `json:"message,omitempty"`
	Version     *string      `json:"version,omitempty"`
	Active      *bool        `json:"active,omitempty"`
	Pressed     *bool        `json:"pressed,omitempty"`
	FirstButton *int         `json:"firstButton,omitempty"`
	ButtonCount *int         `json:"buttonCount,omitempty"`
	LEDEnabled  *bool        `json:"ledEnabled,omitempty"`
	Timestamp   logic.Millis `json:"timestamp"`
}

// Marshal returns the record line for ev, including the trailing "\n".
func Marshal(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev.Record())
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRecord parses one record line as written by an Encoder.
func DecodeRecord(line []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if !r.Type.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownRecord, r.Type)
	}
	return r, nil
}

// Encoder writes one record line per event.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes ev as a single line. The whole line is passed to one Write
// call so a reader never observes half a record from this side.
func (e *Encoder) Encode(ev Event) error {
	line, err := Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", ev, err)
	}
	if _, err := e.w.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", ev.Record().Type, err)
	}
	return nil
}
