package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/quiz-buzzer/internal/controller"
	"github.com/sweeney/quiz-buzzer/internal/gpio"
	"github.com/sweeney/quiz-buzzer/internal/logic"
	"github.com/sweeney/quiz-buzzer/internal/pins"
	"github.com/sweeney/quiz-buzzer/internal/serial"
)

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// faultIO wraps a FakeIO and fails a fixed range of ReadInput calls.
type faultIO struct {
	*gpio.FakeIO
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (f *faultIO) ReadInput(pin int) (bool, error) {
	i := f.call
	f.call++
	if i >= f.faultStart && i < f.faultEnd {
		return false, errors.New("gpio fault")
	}
	return f.FakeIO.ReadInput(pin)
}

// loop runs runLoop in a goroutine. Every send blocks until runLoop has
// taken the value, so steps are applied in order.
type loop struct {
	tick  chan time.Time
	rx    chan []byte
	sig   chan os.Signal
	errCh chan error
}

func startLoop(ctrl *controller.Controller, clock func() time.Time) *loop {
	l := &loop{
		tick:  make(chan time.Time),
		rx:    make(chan []byte),
		sig:   make(chan os.Signal, 1),
		errCh: make(chan error, 1),
	}
	go func() {
		l.errCh <- runLoop(ctrl, clock, l.tick, l.rx, l.sig)
	}()
	return l
}

func (l *loop) ticks(n int) {
	for i := 0; i < n; i++ {
		l.tick <- time.Time{}
	}
}

func (l *loop) send(s string) {
	l.rx <- []byte(s)
}

func (l *loop) stop(s os.Signal) error {
	l.sig <- s
	return <-l.errCh
}

type rig struct {
	cfg  pins.Config
	io   *gpio.FakeIO
	port *serial.FakePort
	ctrl *controller.Controller
}

func newRig(in logic.InputReader, fio *gpio.FakeIO, mutate func(*pins.Config)) *rig {
	cfg := pins.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	port := serial.NewFakePort()
	sc := logic.NewScanner(cfg.Buttons, cfg.Debounce(), in, 0)
	return &rig{
		cfg:  cfg,
		io:   fio,
		port: port,
		ctrl: controller.New(cfg, sc, fio, port),
	}
}

func newFakeRig(mutate func(*pins.Config)) *rig {
	fio := gpio.NewFakeIO()
	return newRig(fio, fio, mutate)
}

func testClock() func() time.Time {
	return fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 10*time.Millisecond)
}

func TestRunLoopReadyOnly(t *testing.T) {
	r := newFakeRig(nil)
	l := startLoop(r.ctrl, testClock())

	l.ticks(5)
	require.NoError(t, l.stop(syscall.SIGTERM))

	assert.Equal(t, []string{`{"type":"systemReady","version":"1.0.0","timestamp":0}`}, r.port.Lines())
}

func TestRunLoopFirstPress(t *testing.T) {
	r := newFakeRig(nil)
	r.io.Set(r.cfg.Buttons[0].Pin, true)
	l := startLoop(r.ctrl, testClock())

	// Clock: boot=0, ticks at 10..70. Stable strictly after 50ms of no change.
	l.ticks(7)
	l.send("STATUS\n")
	require.NoError(t, l.stop(syscall.SIGINT))

	assert.Equal(t, []string{
		`{"type":"systemReady","version":"1.0.0","timestamp":0}`,
		`{"type":"pressedButton","buttonId":1,"timestamp":70}`,
		`{"type":"status","active":false,"pressed":true,"firstButton":1,"timestamp":80}`,
	}, r.port.Lines())
	assert.Equal(t, []int{17}, r.io.Lit())
}

func TestRunLoopResetWithButtonHeld(t *testing.T) {
	r := newFakeRig(nil)
	r.io.Set(r.cfg.Buttons[2].Pin, true)
	l := startLoop(r.ctrl, testClock())

	l.ticks(7) // button 3 wins at 70
	l.send("RESET\n")
	l.ticks(10) // button 3 still held: no report
	lines := r.port.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, `{"type":"systemReset","timestamp":80}`, lines[2])

	require.NoError(t, l.stop(syscall.SIGTERM))
	assert.Empty(t, r.io.Lit())
	assert.True(t, r.ctrl.State().Active)
}

func TestRunLoopUnknownCommand(t *testing.T) {
	r := newFakeRig(nil)
	l := startLoop(r.ctrl, testClock())

	l.send("PING\n")
	require.NoError(t, l.stop(syscall.SIGTERM))

	lines := r.port.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, `{"type":"error","message":"Unknown command","timestamp":10}`, lines[1])
}

func TestRunLoopDebugRecords(t *testing.T) {
	r := newFakeRig(func(c *pins.Config) { c.Debug = true })
	l := startLoop(r.ctrl, testClock())

	l.send("CONFIG\n")
	require.NoError(t, l.stop(syscall.SIGTERM))

	assert.Equal(t, []string{
		`{"type":"systemReady","version":"1.0.0","timestamp":0}`,
		`{"type":"debug","message":"Scanner initialized","timestamp":0}`,
		`{"type":"config","buttonCount":6,"ledEnabled":true,"timestamp":10}`,
		`{"type":"debug","message":"Sent config update","timestamp":10}`,
	}, r.port.Lines())
}

func TestRunLoopGPIOErrorRecovery(t *testing.T) {
	fio := gpio.NewFakeIO()
	// Tick 1 takes six reads; a failing read ends the tick, so calls 6 and 7
	// are ticks 2 and 3.
	in := &faultIO{FakeIO: fio, faultStart: 6, faultEnd: 8}
	r := newRig(in, fio, nil)
	fio.Set(r.cfg.Buttons[1].Pin, true)
	l := startLoop(r.ctrl, testClock())

	// Tick 1 sees the press at 10; ticks 2-3 are skipped; the press is
	// committed on the first good tick past 60.
	l.ticks(7)
	require.NoError(t, l.stop(syscall.SIGTERM))

	lines := r.port.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, `{"type":"pressedButton","buttonId":2,"timestamp":70}`, lines[1])
}

func TestRunLoopSerialWriteErrorNotFatal(t *testing.T) {
	r := newFakeRig(nil)
	r.port.SetWriteError(errors.New("port gone"))
	r.io.Set(r.cfg.Buttons[0].Pin, true)
	l := startLoop(r.ctrl, testClock())

	l.ticks(7)
	l.send("STATUS\n")
	require.NoError(t, l.stop(syscall.SIGTERM))

	assert.Empty(t, r.port.Lines())
	assert.Equal(t, logic.ButtonID(1), r.ctrl.State().FirstPressed)
}

func TestRunLoopRxClosed(t *testing.T) {
	r := newFakeRig(nil)
	l := startLoop(r.ctrl, testClock())

	close(l.rx)
	r.io.Set(r.cfg.Buttons[5].Pin, true)
	l.ticks(7)
	require.NoError(t, l.stop(syscall.SIGTERM))

	lines := r.port.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"buttonId":6`)
}

func TestReportConfigError(t *testing.T) {
	var buf bytes.Buffer
	reportConfigError(&buf, 3)
	assert.Equal(t, `{"type":"error","message":"Configuration validation failed","timestamp":3}`+"\n", buf.String())
}

// --- CLI tests ---

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckConfigDefaults(t *testing.T) {
	out, err := execute(t, "check-config")
	require.NoError(t, err)

	assert.Contains(t, out, "BUTTON  PIN  LED")
	assert.Contains(t, out, "debounce=50ms led-feedback=true debug=false")
	assert.Equal(t, 1+6+1, strings.Count(out, "\n"))
}

func TestCheckConfigFlags(t *testing.T) {
	out, err := execute(t, "check-config", "--pins", "5,6,13", "--leds", "17,17", "--debounce", "20ms", "--debug")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"1", "5", "17"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "6", "17"}, strings.Fields(lines[2]), "LED pins may be shared")
	assert.Equal(t, []string{"3", "13", "-"}, strings.Fields(lines[3]))
	assert.Equal(t, "debounce=20ms led-feedback=true debug=true", lines[4])
}

func TestCheckConfigPinsKeepDefaultLEDs(t *testing.T) {
	out, err := execute(t, "check-config", "--pins", "5,6")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"2", "6", "27"}, strings.Fields(lines[2]))
}

func TestCheckConfigLEDFeedbackOff(t *testing.T) {
	out, err := execute(t, "check-config", "--led-feedback=false", "--pins", "5,6", "--leds", "5,6")
	require.NoError(t, err, "LED pins are ignored when feedback is off")
	assert.Contains(t, out, "led-feedback=false")
}

func TestCheckConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"duplicate pins", []string{"--pins", "5,5"}, pins.ErrDuplicatePin},
		{"too many buttons", []string{"--pins", "1,2,3,4,5,6,7"}, pins.ErrButtonCount},
		{"pin out of range", []string{"--pins", "5,40"}, pins.ErrPinRange},
		{"led on button pin", []string{"--pins", "5,6", "--leds", "6,17"}, pins.ErrLEDConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"check-config"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCheckConfigBadPinList(t *testing.T) {
	_, err := execute(t, "check-config", "--pins", "5,x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pins")
}

func TestCheckConfigFileWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buzzer.yaml")
	data := "debounce_ms: 30\nled_enabled: false\nbuttons:\n  - pin: 4\n  - pin: 12\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	out, err := execute(t, "check-config", "--config", path, "--debounce", "40ms")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"1", "4", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, "debounce=40ms led-feedback=false debug=false", lines[3])
}

func TestBadLogLevel(t *testing.T) {
	_, err := execute(t, "check-config", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestPrintState(t *testing.T) {
	cfg := pins.Default()
	cfg.Buttons = pins.Slots([]int{5, 6}, nil)
	fio := gpio.NewFakeIO()
	fio.Set(6, true)

	var buf bytes.Buffer
	require.NoError(t, printState(&buf, cfg, fio))
	assert.Equal(t, "Button 1 (pin 5): RELEASED\nButton 2 (pin 6): PRESSED\n", buf.String())

	fio.ReadError = errors.New("busy")
	assert.Error(t, printState(&buf, cfg, fio))
}
