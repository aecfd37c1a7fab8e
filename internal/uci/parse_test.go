package uci

import (
	"errors"
	"reflect"
	"testing"
)

func intp(v int) *int { return &v }

func TestParseInfoLine(t *testing.T) {
	line := "info depth 1 seldepth 1 multipv 1 score cp 59 nodes 56 nps 56000 hashfull 0 tbhits 0 time 1 pv d6f4 e3f4"
	ev, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Info{
		CP:       intp(59),
		Depth:    intp(1),
		SelDepth: intp(1),
		MultiPV:  intp(1),
		Nodes:    intp(56),
		TimeMS:   intp(1),
		PV:       []string{"d6f4", "e3f4"},
	}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if got := ev.(Info); got.Mate != nil {
		t.Fatalf("expected absent mate, got %d", *got.Mate)
	}
}

func TestParseInfoIdempotent(t *testing.T) {
	line := "info depth 24 seldepth 33 multipv 1 score cp -195 nodes 2499457 time 3892 pv d8a5 a4a5"
	first, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse#1: %v", err)
	}
	second, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse#2: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decoding not idempotent: %+v vs %+v", first, second)
	}
}

func TestParseInfoPVAbsentVsEmpty(t *testing.T) {
	ev, err := Parse("info depth 3 nodes 100")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.(Info).PV != nil {
		t.Fatalf("expected absent pv, got %v", ev.(Info).PV)
	}

	// A trailing "pv" token with no moves is an empty sequence, not absent.
	ev, err = Parse("info depth 3 nodes 100 pv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pv := ev.(Info).PV
	if pv == nil || len(pv) != 0 {
		t.Fatalf("expected present empty pv, got %#v", pv)
	}
}

func TestParseInfoMate(t *testing.T) {
	ev, err := Parse("info depth 12 score mate 3 pv e1g1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := ev.(Info)
	if got.Mate == nil || *got.Mate != 3 {
		t.Fatalf("expected mate 3, got %+v", got.Mate)
	}
	if got.CP != nil {
		t.Fatalf("expected absent cp, got %d", *got.CP)
	}
}

func TestParseHandshakeTokens(t *testing.T) {
	if ev, err := Parse("uciok"); err != nil || ev != (UciOK{}) {
		t.Fatalf("uciok: ev=%v err=%v", ev, err)
	}
	if ev, err := Parse("readyok"); err != nil || ev != (ReadyOK{}) {
		t.Fatalf("readyok: ev=%v err=%v", ev, err)
	}
}

func TestParseUnrecognized(t *testing.T) {
	for _, line := range []string{
		"id name Stockfish 16",
		"Stockfish 16 by the Stockfish developers",
		"",
		"   ",
	} {
		if _, err := Parse(line); !errors.Is(err, ErrUnrecognized) {
			t.Fatalf("line %q: expected ErrUnrecognized, got %v", line, err)
		}
	}
}

func TestParseOptionSpin(t *testing.T) {
	ev, err := Parse("option name Hash type spin default 16 min 1 max 33554432")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opt := ev.(OptionAdvertised)
	if opt.Name != "Hash" {
		t.Fatalf("name: %q", opt.Name)
	}
	spin, ok := opt.Type.(SpinOption)
	if !ok {
		t.Fatalf("type: %T", opt.Type)
	}
	if spin.Default != 16 || spin.Min != 1 || spin.Max != 33554432 {
		t.Fatalf("spin: %+v", spin)
	}
}

func TestParseOptionVariants(t *testing.T) {
	ev, err := Parse("option name Ponder type check default false")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if typ := ev.(OptionAdvertised).Type.(CheckOption); typ.Default {
		t.Fatalf("check default: %+v", typ)
	}

	ev, err = Parse("option name Style type combo default Normal var Solid var Normal var Risky")
	if err != nil {
		t.Fatalf("combo: %v", err)
	}
	combo := ev.(OptionAdvertised).Type.(ComboOption)
	if combo.Default != "Normal" || !reflect.DeepEqual(combo.Vars, []string{"Solid", "Normal", "Risky"}) {
		t.Fatalf("combo: %+v", combo)
	}

	ev, err = Parse("option name Clear type button")
	if err != nil {
		t.Fatalf("button: %v", err)
	}
	if _, ok := ev.(OptionAdvertised).Type.(ButtonOption); !ok {
		t.Fatalf("button type: %T", ev.(OptionAdvertised).Type)
	}

	ev, err = Parse("option name SyzygyPath type string default <empty>")
	if err != nil {
		t.Fatalf("string: %v", err)
	}
	if typ := ev.(OptionAdvertised).Type.(StringOption); typ.Default != "<empty>" {
		t.Fatalf("string default: %q", typ.Default)
	}
}

func TestParseOptionHardErrors(t *testing.T) {
	for _, line := range []string{
		"option name Hash type spin min 1 max 4",   // missing default
		"option name Hash type spin default 16",    // missing min/max
		"option name Weird type gauge default 1",   // unknown type
		"option type spin default 16 min 1 max 4",  // missing name
		"option name NalimovPath type string",      // missing default
		"option name Ponder type check default yep", // non-bool default
	} {
		_, err := Parse(line)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("line %q: expected ParseError, got %v", line, err)
		}
	}
}

func TestParseBestMove(t *testing.T) {
	ev, err := Parse("bestmove d6f4 ponder e3f4")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bm := ev.(BestMove)
	if bm.Move != "d6f4" || bm.Ponder != "e3f4" {
		t.Fatalf("bestmove: %+v", bm)
	}

	ev, err = Parse("bestmove e2e4")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bm := ev.(BestMove); bm.Move != "e2e4" || bm.Ponder != "" {
		t.Fatalf("bestmove: %+v", bm)
	}
}
