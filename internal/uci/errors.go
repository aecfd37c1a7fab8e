package uci

import (
	"errors"
	"fmt"
)

// ErrUnrecognized marks an engine output line that does not start with a
// known command token. Unrecognized lines are not failures: engines emit
// vendor-specific chatter at any time and callers should skip them.
var ErrUnrecognized = errors.New("unrecognized uci line")

// SpawnError reports that the engine executable could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn engine %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WriteError reports that a command could not be written to the engine's
// stdin, typically because the process has exited. Fatal for the instance.
type WriteError struct {
	Command string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %q to engine: %v", e.Command, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ParseError reports a line that matched a known command but was missing a
// required field. Distinct from ErrUnrecognized: the reader logs and skips
// such lines, direct callers of Parse get the error.
type ParseError struct {
	Line  string
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse uci line %q: bad or missing %s", e.Line, e.Field)
}

// ProtocolTimeout reports that the engine did not reach an expected
// lifecycle phase within the bounded retry budget.
type ProtocolTimeout struct {
	Expected Phase
	Attempts int
}

func (e *ProtocolTimeout) Error() string {
	return fmt.Sprintf("engine did not reach phase %s after %d attempts", e.Expected, e.Attempts)
}
