package uci

import (
	"fmt"
	"sync"
)

// Phase is the engine's lifecycle phase. It only ever advances through
// parsed protocol events and explicit facade commands; it never reverts
// except via stop / ucinewgame.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseReady
	PhaseThinking
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseReady:
		return "ready"
	case PhaseThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// Evaluation is the merged snapshot of the engine's analysis output.
// Each incoming info line overwrites only the fields it carries; fields
// absent from the line keep their previous value.
type Evaluation struct {
	CP       int      `json:"cp"`
	Mate     int      `json:"mate"`
	Depth    int      `json:"depth"`
	SelDepth int      `json:"seldepth"`
	Nodes    int      `json:"nodes"`
	TimeMS   int      `json:"time_ms"`
	MultiPV  int      `json:"multipv"`
	PV       []string `json:"pv"`
}

func (e Evaluation) String() string {
	return fmt.Sprintf("score: %d mate: %d depth: %d nodes: %d seldepth: %d multipv: %d time: %d",
		e.CP, e.Mate, e.Depth, e.Nodes, e.SelDepth, e.MultiPV, e.TimeMS)
}

// Equal reports structural equality, the comparison callers use to decide
// whether a polled snapshot is new.
func (e Evaluation) Equal(o Evaluation) bool {
	if e.CP != o.CP || e.Mate != o.Mate || e.Depth != o.Depth ||
		e.SelDepth != o.SelDepth || e.Nodes != o.Nodes ||
		e.TimeMS != o.TimeMS || e.MultiPV != o.MultiPV {
		return false
	}
	if len(e.PV) != len(o.PV) {
		return false
	}
	for i := range e.PV {
		if e.PV[i] != o.PV[i] {
			return false
		}
	}
	return true
}

// EngineOption is one advertised engine parameter. Options accumulate in
// advertisement order; duplicate names are kept, not deduplicated.
type EngineOption struct {
	Name string
	Type OptionType
}

// engineState is the shared record between the facade (reader side) and
// the process driver's reader goroutine (sole writer). Every access is a
// short critical section; nothing sleeps while holding the lock.
type engineState struct {
	mu       sync.Mutex
	phase    Phase
	eval     *Evaluation
	options  []EngineOption
	bestMove *BestMove
}

func newEngineState() *engineState {
	return &engineState{phase: PhaseUninitialized}
}

// apply folds one parsed event into the shared record. Only the reader
// goroutine calls this.
func (s *engineState) apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev := ev.(type) {
	case UciOK:
		s.phase = PhaseInitialized
	case ReadyOK:
		s.phase = PhaseReady
	case Info:
		merged := Evaluation{}
		if s.eval != nil {
			merged = *s.eval
		}
		if ev.CP != nil {
			merged.CP = *ev.CP
		}
		if ev.Mate != nil {
			merged.Mate = *ev.Mate
		}
		if ev.Depth != nil {
			merged.Depth = *ev.Depth
		}
		if ev.SelDepth != nil {
			merged.SelDepth = *ev.SelDepth
		}
		if ev.Nodes != nil {
			merged.Nodes = *ev.Nodes
		}
		if ev.TimeMS != nil {
			merged.TimeMS = *ev.TimeMS
		}
		if ev.MultiPV != nil {
			merged.MultiPV = *ev.MultiPV
		}
		if ev.PV != nil {
			merged.PV = ev.PV
		}
		s.eval = &merged
	case BestMove:
		bm := ev
		s.bestMove = &bm
	case OptionAdvertised:
		s.options = append(s.options, EngineOption{Name: ev.Name, Type: ev.Type})
	}
}

func (s *engineState) currentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *engineState) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// evaluation returns a copy of the latest merged snapshot, or false if no
// info line has been observed yet.
func (s *engineState) evaluation() (Evaluation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eval == nil {
		return Evaluation{}, false
	}
	out := *s.eval
	if s.eval.PV != nil {
		out.PV = make([]string, len(s.eval.PV))
		copy(out.PV, s.eval.PV)
	}
	return out, true
}

func (s *engineState) bestMoveSnapshot() (BestMove, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bestMove == nil {
		return BestMove{}, false
	}
	return *s.bestMove, true
}

func (s *engineState) clearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bestMove = nil
}

func (s *engineState) optionList() []EngineOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EngineOption, len(s.options))
	copy(out, s.options)
	return out
}
