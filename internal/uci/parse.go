package uci

import (
	"strconv"
	"strings"
)

// Event is a single decoded line of engine output.
type Event interface {
	event()
}

// UciOK is sent by the engine after the "uci" command.
type UciOK struct{}

// ReadyOK is sent by the engine after the "isready" command.
type ReadyOK struct{}

// Info carries a partial evaluation update. Every field is optional: a nil
// pointer means the keyword was not present on the line. PV distinguishes
// "absent" (nil) from "present with zero moves" (non-nil empty slice).
type Info struct {
	CP       *int
	Mate     *int
	Depth    *int
	SelDepth *int
	Nodes    *int
	TimeMS   *int
	MultiPV  *int
	PV       []string
}

// BestMove is sent by the engine when a search finishes.
type BestMove struct {
	Move   string
	Ponder string
}

// OptionAdvertised describes one configurable engine parameter.
type OptionAdvertised struct {
	Name string
	Type OptionType
}

func (UciOK) event()            {}
func (ReadyOK) event()          {}
func (Info) event()             {}
func (BestMove) event()         {}
func (OptionAdvertised) event() {}

// OptionType is one of CheckOption, SpinOption, ComboOption, ButtonOption
// or StringOption.
type OptionType interface {
	optionType()
}

type CheckOption struct {
	Default bool
}

type SpinOption struct {
	Default int
	Min     int
	Max     int
}

type ComboOption struct {
	Default string
	Vars    []string
}

type ButtonOption struct{}

type StringOption struct {
	Default string
}

func (CheckOption) optionType()  {}
func (SpinOption) optionType()   {}
func (ComboOption) optionType()  {}
func (ButtonOption) optionType() {}
func (StringOption) optionType() {}

// Parse decodes one line of engine output, dispatching on the first token.
// Unknown leading tokens return ErrUnrecognized: the protocol allows
// arbitrary vendor-specific lines and they are not an error. A line that
// matches a known command but is missing a required sub-field returns a
// *ParseError.
//
// Limitation carried from the wire format: option and combo-var names with
// embedded whitespace are not handled, the keyword scan cannot tell a
// multi-word name apart from the next keyword.
func Parse(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrUnrecognized
	}
	switch fields[0] {
	case "uciok":
		return UciOK{}, nil
	case "readyok":
		return ReadyOK{}, nil
	case "info":
		return parseInfo(fields), nil
	case "bestmove":
		return parseBestMove(fields)
	case "option":
		return parseOption(fields)
	default:
		return nil, ErrUnrecognized
	}
}

// intAfter scans fields for the exact keyword and parses the token that
// follows it. A missing keyword, a missing follower or a non-integer
// follower all yield nil.
func intAfter(fields []string, keyword string) *int {
	for i, f := range fields {
		if f != keyword {
			continue
		}
		if i+1 >= len(fields) {
			return nil
		}
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil
		}
		return &v
	}
	return nil
}

func contains(fields []string, keyword string) bool {
	for _, f := range fields {
		if f == keyword {
			return true
		}
	}
	return false
}

// stringAfter returns the token following the exact keyword, or "" and
// false if the keyword is absent or last on the line.
func stringAfter(fields []string, keyword string) (string, bool) {
	for i, f := range fields {
		if f == keyword {
			if i+1 >= len(fields) {
				return "", false
			}
			return fields[i+1], true
		}
	}
	return "", false
}

func parseInfo(fields []string) Info {
	ev := Info{
		CP:       intAfter(fields, "cp"),
		Mate:     intAfter(fields, "mate"),
		Depth:    intAfter(fields, "depth"),
		SelDepth: intAfter(fields, "seldepth"),
		Nodes:    intAfter(fields, "nodes"),
		TimeMS:   intAfter(fields, "time"),
		MultiPV:  intAfter(fields, "multipv"),
	}
	for i, f := range fields {
		if f == "pv" {
			moves := fields[i+1:]
			ev.PV = make([]string, len(moves))
			copy(ev.PV, moves)
			break
		}
	}
	return ev
}

func parseBestMove(fields []string) (Event, error) {
	if len(fields) < 2 {
		return nil, &ParseError{Line: strings.Join(fields, " "), Field: "move"}
	}
	ev := BestMove{Move: fields[1]}
	if v, ok := stringAfter(fields, "ponder"); ok {
		ev.Ponder = v
	}
	return ev, nil
}

func parseOption(fields []string) (Event, error) {
	line := strings.Join(fields, " ")
	name, ok := stringAfter(fields, "name")
	if !ok {
		return nil, &ParseError{Line: line, Field: "name"}
	}
	kind, ok := stringAfter(fields, "type")
	if !ok {
		return nil, &ParseError{Line: line, Field: "type"}
	}

	var typ OptionType
	switch kind {
	case "check":
		v, ok := stringAfter(fields, "default")
		if !ok {
			return nil, &ParseError{Line: line, Field: "default"}
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ParseError{Line: line, Field: "default"}
		}
		typ = CheckOption{Default: b}
	case "spin":
		def := intAfter(fields, "default")
		min := intAfter(fields, "min")
		max := intAfter(fields, "max")
		switch {
		case def == nil:
			return nil, &ParseError{Line: line, Field: "default"}
		case min == nil:
			return nil, &ParseError{Line: line, Field: "min"}
		case max == nil:
			return nil, &ParseError{Line: line, Field: "max"}
		}
		typ = SpinOption{Default: *def, Min: *min, Max: *max}
	case "combo":
		def, ok := stringAfter(fields, "default")
		if !ok {
			return nil, &ParseError{Line: line, Field: "default"}
		}
		var vars []string
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "var" {
				vars = append(vars, fields[i+1])
			}
		}
		typ = ComboOption{Default: def, Vars: vars}
	case "button":
		typ = ButtonOption{}
	case "string":
		if !contains(fields, "default") {
			return nil, &ParseError{Line: line, Field: "default"}
		}
		// Engines advertise an empty default by leaving "default" as the last
		// token on the line.
		def, _ := stringAfter(fields, "default")
		typ = StringOption{Default: def}
	default:
		return nil, &ParseError{Line: line, Field: "type"}
	}

	return OptionAdvertised{Name: name, Type: typ}, nil
}
