package parser

import "fmt"

// InvalidCommand is returned when a line cannot be classified into the
// control-flow-relevant grammar. It carries enough context for the
// diagnostics package to render "<file>:<line>: invalid-command: <reason>"
// without re-deriving anything.
type InvalidCommand struct {
	LineNumber int
	Reason     string
	ByteStart  int
	ByteEnd    int
}

func (e *InvalidCommand) Error() string {
	return fmt.Sprintf("line %d: invalid command: %s", e.LineNumber, e.Reason)
}

func invalidf(line int, start, end int, format string, args ...any) *InvalidCommand {
	return &InvalidCommand{
		LineNumber: line,
		Reason:     fmt.Sprintf(format, args...),
		ByteStart:  start,
		ByteEnd:    end,
	}
}
