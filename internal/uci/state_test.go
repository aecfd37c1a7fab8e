package uci

import (
	"reflect"
	"testing"
)

func TestStateEvaluationNoneYet(t *testing.T) {
	s := newEngineState()
	if _, ok := s.evaluation(); ok {
		t.Fatal("expected no evaluation before any info line")
	}
}

func TestStateMergeLaw(t *testing.T) {
	s := newEngineState()
	s.apply(Info{
		CP:       intp(59),
		Mate:     intp(0),
		Depth:    intp(1),
		SelDepth: intp(1),
		Nodes:    intp(56),
		TimeMS:   intp(1),
		MultiPV:  intp(1),
		PV:       []string{"d6f4", "e3f4"},
	})

	// A partial update carrying only depth and nodes must change exactly
	// those two fields.
	s.apply(Info{Depth: intp(2), Nodes: intp(227)})

	ev, ok := s.evaluation()
	if !ok {
		t.Fatal("expected an evaluation")
	}
	want := Evaluation{
		CP:       59,
		Mate:     0,
		Depth:    2,
		SelDepth: 1,
		Nodes:    227,
		TimeMS:   1,
		MultiPV:  1,
		PV:       []string{"d6f4", "e3f4"},
	}
	if !ev.Equal(want) {
		t.Fatalf("merged snapshot: %+v", ev)
	}
}

func TestStateMergeKeepsPVWhenAbsent(t *testing.T) {
	s := newEngineState()
	s.apply(Info{Depth: intp(1), PV: []string{"e2e4"}})
	s.apply(Info{Depth: intp(2)}) // no pv token on this line

	ev, _ := s.evaluation()
	if !reflect.DeepEqual(ev.PV, []string{"e2e4"}) {
		t.Fatalf("pv should survive a pv-less update: %v", ev.PV)
	}

	// An explicit empty pv replaces it.
	s.apply(Info{PV: []string{}})
	ev, _ = s.evaluation()
	if ev.PV == nil || len(ev.PV) != 0 {
		t.Fatalf("expected empty pv, got %#v", ev.PV)
	}
}

func TestStatePhaseTransitions(t *testing.T) {
	s := newEngineState()
	if got := s.currentPhase(); got != PhaseUninitialized {
		t.Fatalf("initial phase: %s", got)
	}
	s.apply(UciOK{})
	if got := s.currentPhase(); got != PhaseInitialized {
		t.Fatalf("after uciok: %s", got)
	}
	s.apply(ReadyOK{})
	if got := s.currentPhase(); got != PhaseReady {
		t.Fatalf("after readyok: %s", got)
	}

	// Info lines and bestmove must not move the phase.
	s.apply(Info{Depth: intp(1)})
	s.apply(BestMove{Move: "e2e4"})
	if got := s.currentPhase(); got != PhaseReady {
		t.Fatalf("phase moved by non-handshake event: %s", got)
	}
}

func TestStateOptionsAccumulateInOrder(t *testing.T) {
	s := newEngineState()
	s.apply(OptionAdvertised{Name: "Hash", Type: SpinOption{Default: 16, Min: 1, Max: 1024}})
	s.apply(OptionAdvertised{Name: "Ponder", Type: CheckOption{}})
	s.apply(OptionAdvertised{Name: "Hash", Type: SpinOption{Default: 32, Min: 1, Max: 2048}})

	opts := s.optionList()
	if len(opts) != 3 {
		t.Fatalf("duplicates must be kept, got %d options", len(opts))
	}
	if opts[0].Name != "Hash" || opts[1].Name != "Ponder" || opts[2].Name != "Hash" {
		t.Fatalf("advertisement order lost: %+v", opts)
	}
	if opts[2].Type.(SpinOption).Default != 32 {
		t.Fatalf("last Hash advertisement: %+v", opts[2])
	}
}

func TestStateBestMoveClearedOnNewSearch(t *testing.T) {
	s := newEngineState()
	s.apply(BestMove{Move: "e2e4", Ponder: "e7e5"})
	if bm, ok := s.bestMoveSnapshot(); !ok || bm.Move != "e2e4" {
		t.Fatalf("bestmove: %+v ok=%v", bm, ok)
	}
	s.clearSearch()
	if _, ok := s.bestMoveSnapshot(); ok {
		t.Fatal("bestmove should be cleared")
	}
}
