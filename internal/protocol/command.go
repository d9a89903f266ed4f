package protocol

import "strings"

// CommandKind identifies an inbound command.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandReset
	CommandStatus
	CommandConfig
)

var commandNames = map[CommandKind]string{
	CommandReset:  "RESET",
	CommandStatus: "STATUS",
	CommandConfig: "CONFIG",
}

// String returns the wire literal of the command, or "UNKNOWN".
func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Command is one parsed inbound line.
type Command struct {
	Kind CommandKind
	// Raw is the trimmed line text.
	Raw string
}

// ParseLine parses one line of input. Surrounding whitespace is trimmed and
// the result compared case-sensitively against the command literals. It
// returns false for a line that is empty after trimming.
func ParseLine(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, false
	}
	for k, name := range commandNames {
		if text == name {
			return Command{Kind: k, Raw: text}, true
		}
	}
	return Command{Kind: CommandUnknown, Raw: text}, true
}

// Line returns the text a host sends for k, terminator included.
func (k CommandKind) Line() string {
	return k.String() + "\n"
}
