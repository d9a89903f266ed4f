package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/quiz-buzzer/internal/pins"
)

// slot is the per-button debounce state owned by the Scanner.
type slot struct {
	cfg        pins.ButtonSlot
	filter     Filter
	prevStable bool
	// armed is false for a slot that may still be held from before a reset.
	// It is set again once the slot reads released both raw and stable.
	armed bool
}

// Scanner polls every configured button once per tick and latches the first
// press.
type Scanner struct {
	in    InputReader
	slots []slot
	state ScannerState
	raw   []bool // scratch buffer for one tick's readings
}

// NewScanner creates a scanner for the given slots. All slots start
// released and armed, and the scanner starts active.
func NewScanner(buttons []pins.ButtonSlot, debounce time.Duration, in InputReader, now Millis) *Scanner {
	delay := Millis(debounce.Milliseconds())
	s := &Scanner{
		in:    in,
		slots: make([]slot, len(buttons)),
		state: ScannerState{Active: true},
		raw:   make([]bool, len(buttons)),
	}
	for i, b := range buttons {
		s.slots[i] = slot{
			cfg:    b,
			filter: NewFilter(delay, now),
			armed:  true,
		}
	}
	return s
}

// Tick runs one polling cycle. It returns the id of the button that won the
// first-press latch in this tick, or NoButton.
//
// Every slot's filter is updated before edges are inspected, so an early
// winner never skews the debounce timing of the remaining slots. When
// several slots see a rising edge in the same tick the lowest index wins.
//
// If any input cannot be read the tick is abandoned before any state is
// touched.
func (s *Scanner) Tick(now Millis) (ButtonID, error) {
	for i := range s.slots {
		v, err := s.in.ReadInput(s.slots[i].cfg.Pin)
		if err != nil {
			return NoButton, fmt.Errorf("read button %d (pin %d): %w", s.slots[i].cfg.ID(), s.slots[i].cfg.Pin, err)
		}
		s.raw[i] = v
	}

	winner := NoButton
	for i := range s.slots {
		sl := &s.slots[i]
		stable := sl.filter.Sample(s.raw[i], now)
		rising := stable && !sl.prevStable
		sl.prevStable = stable

		if !sl.armed {
			if !stable && !sl.filter.Raw() {
				sl.armed = true
			}
			continue
		}

		if rising && s.state.Active && winner == NoButton {
			winner = ButtonID(sl.cfg.ID())
		}
	}

	if winner != NoButton {
		s.state.FirstPressed = winner
		s.state.Active = false
	}
	return winner, nil
}

// Reset re-opens the latch and forces every slot back to released. A slot
// whose last raw reading was pressed is disarmed, so a button still held
// through the reset does not report until it has been released and pressed
// again.
func (s *Scanner) Reset(now Millis) {
	s.state = ScannerState{Active: true}
	for i := range s.slots {
		sl := &s.slots[i]
		sl.armed = !sl.filter.Raw()
		sl.filter.Reset(now)
		sl.prevStable = false
	}
}

// State returns the current latch state.
func (s *Scanner) State() ScannerState {
	return s.state
}

// Levels returns the debounced level of every slot, in slot order.
func (s *Scanner) Levels() []bool {
	out := make([]bool, len(s.slots))
	for i := range s.slots {
		out[i] = s.slots[i].filter.Stable()
	}
	return out
}

// Slot returns the configuration of the button with the given id.
func (s *Scanner) Slot(id ButtonID) (pins.ButtonSlot, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(s.slots) {
		return pins.ButtonSlot{}, false
	}
	return s.slots[i].cfg, true
}

// ButtonCount returns the number of scanned buttons.
func (s *Scanner) ButtonCount() int {
	return len(s.slots)
}
