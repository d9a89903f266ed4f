// Package controller binds the button scanner, the LEDs and the serial
// protocol together. It is driven by the main loop and owns no goroutines.
package controller

import (
	"errors"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/quiz-buzzer/internal/gpio"
	"github.com/sweeney/quiz-buzzer/internal/logic"
	"github.com/sweeney/quiz-buzzer/internal/pins"
	"github.com/sweeney/quiz-buzzer/internal/protocol"
)

// Debug messages sent when debug output is enabled.
const (
	debugInitialized = "Scanner initialized"
	debugPressed     = "First button pressed"
	debugReset       = "System reset complete"
	debugStatus      = "Sent status update"
	debugConfig      = "Sent config update"
)

// Controller handles one tick or one inbound chunk at a time. It is not safe
// for concurrent use; the main loop is its only caller.
type Controller struct {
	cfg     pins.Config
	scanner *logic.Scanner
	leds    gpio.Writer
	enc     *protocol.Encoder
	dec     *protocol.Decoder
	log     *log.Entry
}

// New creates a Controller. leds may be nil when LED feedback is disabled.
func New(cfg pins.Config, scanner *logic.Scanner, leds gpio.Writer, out io.Writer) *Controller {
	return &Controller{
		cfg:     cfg,
		scanner: scanner,
		leds:    leds,
		enc:     protocol.NewEncoder(out),
		dec:     protocol.NewDecoder(),
		log:     log.WithField("component", "controller"),
	}
}

// Start switches every LED off and announces readiness to the host.
func (c *Controller) Start(now logic.Millis) error {
	c.allLEDsOff()
	return errors.Join(
		c.enc.Encode(protocol.SystemReady{Timestamp: now, Version: protocol.Version}),
		c.debug(debugInitialized, now),
	)
}

// Tick scans the buttons once and reports a first press.
func (c *Controller) Tick(now logic.Millis) error {
	id, err := c.scanner.Tick(now)
	if err != nil {
		return err
	}
	if id == logic.NoButton {
		return nil
	}

	c.log.WithField("button", id).Info("first press")
	c.setLED(id, true)
	return errors.Join(
		c.enc.Encode(protocol.ButtonPressed{ID: id, Timestamp: now}),
		c.debug(debugPressed, now),
	)
}

// Receive feeds inbound bytes and handles every command they complete.
func (c *Controller) Receive(p []byte, now logic.Millis) error {
	var errs []error
	for _, cmd := range c.dec.Feed(p) {
		errs = append(errs, c.Handle(cmd, now))
	}
	return errors.Join(errs...)
}

// Handle applies one command and writes its reply.
func (c *Controller) Handle(cmd protocol.Command, now logic.Millis) error {
	switch cmd.Kind {
	case protocol.CommandReset:
		c.scanner.Reset(now)
		c.allLEDsOff()
		c.log.Info("reset")
		return errors.Join(
			c.enc.Encode(protocol.SystemReset{Timestamp: now}),
			c.debug(debugReset, now),
		)

	case protocol.CommandStatus:
		return errors.Join(
			c.enc.Encode(protocol.StatusFrom(c.scanner.State(), now)),
			c.debug(debugStatus, now),
		)

	case protocol.CommandConfig:
		return errors.Join(
			c.enc.Encode(protocol.Config{
				ButtonCount: c.cfg.ButtonCount(),
				LEDEnabled:  c.cfg.LEDEnabled,
				Timestamp:   now,
			}),
			c.debug(debugConfig, now),
		)

	default:
		c.log.WithField("command", cmd.Raw).Warn("unknown command")
		return c.enc.Encode(protocol.Error{Message: protocol.MsgUnknownCommand, Timestamp: now})
	}
}

// State returns the scanner latch.
func (c *Controller) State() logic.ScannerState {
	return c.scanner.State()
}

func (c *Controller) debug(msg string, now logic.Millis) error {
	if !c.cfg.Debug {
		return nil
	}
	return c.enc.Encode(protocol.Debug{Message: msg, Timestamp: now})
}

func (c *Controller) ledsActive() bool {
	return c.cfg.LEDEnabled && c.leds != nil
}

func (c *Controller) setLED(id logic.ButtonID, on bool) {
	if !c.ledsActive() {
		return
	}
	slot, ok := c.scanner.Slot(id)
	if !ok || !slot.HasLED() {
		return
	}
	if err := c.leds.WriteOutput(slot.LEDPin, on); err != nil {
		c.log.WithError(err).WithField("pin", slot.LEDPin).Warn("led write failed")
	}
}

func (c *Controller) allLEDsOff() {
	if !c.ledsActive() {
		return
	}
	for _, pin := range c.cfg.LEDPins() {
		if err := c.leds.WriteOutput(pin, false); err != nil {
			c.log.WithError(err).WithField("pin", pin).Warn("led write failed")
		}
	}
}
