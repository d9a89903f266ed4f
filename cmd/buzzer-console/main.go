// Command buzzer-console is an interactive host shell for a quiz-buzzer
// daemon. It sends commands over the serial link and prints every record the
// daemon reports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abiosoft/ishell"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/quiz-buzzer/internal/protocol"
	"github.com/sweeney/quiz-buzzer/internal/serial"
)

// portEnv names the port to prefer when --port is not given.
const portEnv = "BUZZER_PORT"

// replyWait is how long one-shot mode keeps reading after the last command.
const replyWait = 500 * time.Millisecond

type console struct {
	shell *ishell.Shell
	port  io.Writer
}

const consoleKey = "$console"

func consoleFrom(c *ishell.Context) *console {
	return c.Get(consoleKey).(*console)
}

// sendCmd builds a shell command that writes kind to the daemon. The reply is
// printed by the watcher when it arrives.
func sendCmd(name string, kind protocol.CommandKind, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			if err := consoleFrom(c).send(kind.Line()); err != nil {
				c.Err(err)
			}
		},
	}
}

var commands = []*ishell.Cmd{
	sendCmd("reset", protocol.CommandReset, "re-open the latch and switch LEDs off"),
	sendCmd("status", protocol.CommandStatus, "query the latch"),
	sendCmd("config", protocol.CommandConfig, "query button count and LED feedback"),
	{
		Name: "send",
		Help: "TEXT  send a raw line",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("text expected"))
				return
			}
			line := c.Args[0]
			for _, a := range c.Args[1:] {
				line += " " + a
			}
			if err := consoleFrom(c).send(line + "\n"); err != nil {
				c.Err(err)
			}
		},
	},
}

func newConsole(port io.Writer) *console {
	c := &console{
		shell: ishell.New(),
		port:  port,
	}
	c.shell.Set(consoleKey, c)
	c.shell.SetPrompt("buzzer > ")
	for _, cmd := range commands {
		c.shell.AddCmd(cmd)
	}
	return c
}

func (c *console) send(line string) error {
	if _, err := io.WriteString(c.port, line); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func main() {
	var (
		portName string
		baud     int
		raw      bool
	)

	mainCmd := &cobra.Command{
		Use:          "buzzer-console [command...]",
		Short:        "Interactive console for a quiz-buzzer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(portName, baud, raw, args)
		},
	}
	mainCmd.Flags().StringVarP(&portName, "port", "p", "", "Serial port (default: $"+portEnv+" or the first USB port)")
	mainCmd.Flags().IntVar(&baud, "baud", serial.DefaultBaud, "Serial baud rate")
	mainCmd.Flags().BoolVar(&raw, "json", false, "Print records as received")

	if err := mainCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConsole(portName string, baud int, raw bool, args []string) error {
	if portName == "" {
		name, err := serial.Detect(os.Getenv(portEnv))
		if err != nil {
			return err
		}
		portName = name
	}

	port, err := serial.Open(portName, baud)
	if err != nil {
		return err
	}
	defer port.Close()

	c := newConsole(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chunks := make(chan []byte, 16)
	go func() {
		defer close(chunks)
		if err := serial.Pump(ctx, port, chunks); err != nil {
			log.WithError(err).Error("serial input stopped")
		}
	}()
	go watch(chunks, raw, func(s string) { c.shell.Println(s) })

	if len(args) > 0 {
		if err := c.shell.Process(args...); err != nil {
			return err
		}
		time.Sleep(replyWait)
		return nil
	}
	c.shell.Printf("connected to %s\n", portName)
	c.shell.Run()
	return nil
}
