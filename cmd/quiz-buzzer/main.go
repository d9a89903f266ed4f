// Command quiz-buzzer scans quiz buttons and reports the first press to a host
// over a serial link.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/quiz-buzzer/internal/controller"
	"github.com/sweeney/quiz-buzzer/internal/gpio"
	"github.com/sweeney/quiz-buzzer/internal/logic"
	"github.com/sweeney/quiz-buzzer/internal/pins"
	"github.com/sweeney/quiz-buzzer/internal/protocol"
	"github.com/sweeney/quiz-buzzer/internal/serial"
)

const defaultPort = "/dev/ttyGS0"

type options struct {
	configPath  string
	pinList     string
	ledList     string
	ledFeedback bool
	debounce    time.Duration
	debug       bool
	logLevel    string

	port string
	baud int
	poll time.Duration
	chip string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("fatal")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	mainCmd := &cobra.Command{
		Use:           "quiz-buzzer",
		Short:         "Report the first quiz button pressed over a serial link",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel)
		},
	}
	pf := mainCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	pf.StringVar(&opts.pinList, "pins", "", "Comma separated button pins, button 1 first")
	pf.StringVar(&opts.ledList, "leds", "", "Comma separated LED pins, parallel to --pins")
	pf.BoolVar(&opts.ledFeedback, "led-feedback", true, "Light the winner's LED")
	pf.DurationVar(&opts.debounce, "debounce", pins.DefaultDebounceMs*time.Millisecond, "Debounce window")
	pf.BoolVar(&opts.debug, "debug", false, "Send debug records to the host")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Scan buttons and serve the host protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuzzer(cmd, opts)
		},
	}
	runCmd.Flags().StringVarP(&opts.port, "port", "p", defaultPort, "Serial port to the host")
	runCmd.Flags().IntVar(&opts.baud, "baud", serial.DefaultBaud, "Serial baud rate")
	runCmd.Flags().DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Button polling interval")
	runCmd.Flags().StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO chip")

	printStateCmd := &cobra.Command{
		Use:   "print-state",
		Short: "Print the current level of every button and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			in, err := gpio.NewRealIO(opts.chip, cfg.ButtonPins(), nil)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer in.Close()
			return printState(cmd.OutOrStdout(), cfg, in)
		},
	}
	printStateCmd.Flags().StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO chip")

	checkConfigCmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the pin configuration and print the slot table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), cfg)
		},
	}

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPorts(cmd.OutOrStdout())
		},
	}

	mainCmd.AddCommand(runCmd, printStateCmd, checkConfigCmd, portsCmd)
	return mainCmd
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}

// loadConfig builds the pin table from defaults, the optional config file and
// any flags given on the command line, then validates it.
func loadConfig(cmd *cobra.Command, opts options) (pins.Config, error) {
	cfg := pins.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = pins.LoadFile(opts.configPath)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("pins") || flags.Changed("leds") {
		buttons := cfg.ButtonPins()
		if flags.Changed("pins") {
			p, err := pins.ParsePinList(opts.pinList)
			if err != nil {
				return cfg, fmt.Errorf("--pins: %w", err)
			}
			buttons = p
		}

		leds := make([]int, len(cfg.Buttons))
		for i, b := range cfg.Buttons {
			leds[i] = b.LEDPin
		}
		if flags.Changed("leds") {
			p, err := pins.ParsePinList(opts.ledList)
			if err != nil {
				return cfg, fmt.Errorf("--leds: %w", err)
			}
			leds = p
		}
		cfg.Buttons = pins.Slots(buttons, leds)
	}
	if flags.Changed("led-feedback") {
		cfg.LEDEnabled = opts.ledFeedback
	}
	if flags.Changed("debounce") {
		cfg.DebounceMs = int(opts.debounce.Milliseconds())
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runBuzzer(cmd *cobra.Command, opts options) error {
	boot := time.Now()
	cfg, cfgErr := loadConfig(cmd, opts)

	port, err := serial.Open(opts.port, opts.baud)
	if err != nil {
		if cfgErr != nil {
			return cfgErr
		}
		return err
	}
	defer port.Close()

	if cfgErr != nil {
		reportConfigError(port, logic.MillisSince(boot, time.Now()))
		return cfgErr
	}

	hw, err := gpio.NewRealIO(opts.chip, cfg.ButtonPins(), cfg.LEDPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	var leds gpio.Writer
	if cfg.LEDEnabled {
		leds = hw
	}
	scanner := logic.NewScanner(cfg.Buttons, cfg.Debounce(), hw, 0)
	ctrl := controller.New(cfg, scanner, leds, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rx := make(chan []byte, 16)
	go func() {
		defer close(rx)
		if err := serial.Pump(ctx, port, rx); err != nil {
			log.WithError(err).Error("serial input stopped")
		}
	}()

	log.Infof("started: port=%s baud=%d buttons=%d leds=%v poll=%v debounce=%v",
		opts.port, opts.baud, cfg.ButtonCount(), cfg.LEDEnabled, opts.poll, cfg.Debounce())

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, time.Now, ticker.C, rx, sigCh)
}

// reportConfigError tells the host that the daemon will not start scanning.
func reportConfigError(w io.Writer, now logic.Millis) {
	err := protocol.NewEncoder(w).Encode(protocol.Error{Message: protocol.MsgInvalidConfig, Timestamp: now})
	if err != nil {
		log.WithError(err).Warn("failed to report config error")
	}
}

// runLoop owns the controller. Button ticks, inbound serial chunks and
// signals are handled one at a time. A closed rx channel disables command
// handling but scanning carries on.
func runLoop(ctrl *controller.Controller, now func() time.Time, tick <-chan time.Time, rx <-chan []byte, sig <-chan os.Signal) error {
	boot := now()
	if err := ctrl.Start(0); err != nil {
		log.WithError(err).Warn("failed to send ready record")
	}

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			return nil

		case <-tick:
			if err := ctrl.Tick(logic.MillisSince(boot, now())); err != nil {
				log.WithError(err).Warn("tick failed")
			}

		case p, ok := <-rx:
			if !ok {
				log.Warn("serial input closed, commands disabled")
				rx = nil
				continue
			}
			if err := ctrl.Receive(p, logic.MillisSince(boot, now())); err != nil {
				log.WithError(err).Warn("command reply failed")
			}
		}
	}
}

func printState(w io.Writer, cfg pins.Config, in gpio.Reader) error {
	for _, b := range cfg.Buttons {
		pressed, err := in.ReadInput(b.Pin)
		if err != nil {
			return fmt.Errorf("read button %d: %w", b.ID(), err)
		}
		fmt.Fprintf(w, "Button %d (pin %d): %s\n", b.ID(), b.Pin, levelString(pressed))
	}
	return nil
}

func printSlots(w io.Writer, cfg pins.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUTTON\tPIN\tLED")
	for _, b := range cfg.Buttons {
		led := "-"
		if cfg.LEDEnabled && b.HasLED() {
			led = fmt.Sprint(b.LEDPin)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\n", b.ID(), b.Pin, led)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "debounce=%v led-feedback=%v debug=%v\n", cfg.Debounce(), cfg.LEDEnabled, cfg.Debug)
	return err
}

func listPorts(w io.Writer) error {
	ports, err := serial.List()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Fprintf(w, "%s\tUSB %s:%s %s\n", p.Name, p.VID, p.PID, p.Product)
		} else {
			fmt.Fprintf(w, "%s\n", p.Name)
		}
	}
	return nil
}

func levelString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
