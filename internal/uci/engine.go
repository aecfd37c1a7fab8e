package uci

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	phaseWaitAttempts = 10
	phaseWaitDelay    = 100 * time.Millisecond
)

// Engine drives one UCI engine subprocess. All methods are safe for the
// expected usage of one in-flight command at a time; the snapshot getters
// may additionally be called at any moment, concurrently with the
// background reader.
type Engine struct {
	mu    sync.Mutex
	proc  *process
	state *engineState
}

// NewEngine spawns the engine executable and starts its output reader.
// The engine is in the uninitialized phase until StartUCI is called.
func NewEngine(path string) (*Engine, error) {
	proc, err := spawn(path)
	if err != nil {
		return nil, err
	}
	state := newEngineState()
	proc.startReader(state)
	return &Engine{proc: proc, state: state}, nil
}

func (e *Engine) send(command string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proc.send(command)
}

// waitPhase polls the shared state for the expected phase, sleeping a
// fixed interval between bounded attempts. The state lock is never held
// across a sleep.
func (e *Engine) waitPhase(ctx context.Context, want Phase) error {
	for attempt := 0; attempt < phaseWaitAttempts; attempt++ {
		if e.state.currentPhase() == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(phaseWaitDelay):
		}
	}
	return &ProtocolTimeout{Expected: want, Attempts: phaseWaitAttempts}
}

// StartUCI runs the protocol handshake: "uci" until the engine reports
// uciok, then "isready" until readyok.
func (e *Engine) StartUCI(ctx context.Context) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := e.waitPhase(ctx, PhaseInitialized); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	if err := e.waitPhase(ctx, PhaseReady); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// NewGame notifies the engine of a new game and re-synchronizes via
// isready.
func (e *Engine) NewGame(ctx context.Context) error {
	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	e.state.setPhase(PhaseInitialized)
	e.state.clearSearch()
	if err := e.send("isready"); err != nil {
		return err
	}
	if err := e.waitPhase(ctx, PhaseReady); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// SetPosition sends the position to search. The engine does not
// acknowledge this command, so there is no state wait.
func (e *Engine) SetPosition(fen string) error {
	return e.send(fmt.Sprintf("position fen %s", fen))
}

// GoInfinite starts an unbounded search; only Stop ends it.
func (e *Engine) GoInfinite() error {
	return e.startSearch("go infinite")
}

// GoDepth searches to the given depth in plies.
func (e *Engine) GoDepth(plies int) error {
	return e.startSearch(fmt.Sprintf("go depth %d", plies))
}

// GoTime searches for the given number of milliseconds.
func (e *Engine) GoTime(ms int) error {
	return e.startSearch(fmt.Sprintf("go movetime %d", ms))
}

// GoMate searches for a mate in the given number of moves.
func (e *Engine) GoMate(mateIn int) error {
	return e.startSearch(fmt.Sprintf("go mate %d", mateIn))
}

// startSearch issues a go command and moves to the thinking phase
// optimistically: the protocol has no acknowledgment for search start.
func (e *Engine) startSearch(command string) error {
	if err := e.send(command); err != nil {
		return err
	}
	e.state.clearSearch()
	e.state.setPhase(PhaseThinking)
	return nil
}

// Stop ends the current search. The protocol has no confirmation that the
// search stopped; the phase moving back to initialized is the signal.
func (e *Engine) Stop() error {
	if err := e.send("stop"); err != nil {
		return err
	}
	e.state.setPhase(PhaseInitialized)
	return nil
}

// Evaluation returns the latest merged evaluation snapshot, or false if
// the engine has produced no info lines yet. Callers poll this and compare
// snapshots with Evaluation.Equal to detect changes.
func (e *Engine) Evaluation() (Evaluation, bool) {
	return e.state.evaluation()
}

// BestMove returns the result of the last finished search, or false while
// no search has finished since the last go command.
func (e *Engine) BestMove() (BestMove, bool) {
	return e.state.bestMoveSnapshot()
}

// Options returns the engine options advertised so far, in advertisement
// order. Valid any time after StartUCI has been issued; engines emit the
// list during the handshake.
func (e *Engine) Options() []EngineOption {
	return e.state.optionList()
}

// SetOption sets a named engine option. Fire and forget, the protocol has
// no acknowledgment.
func (e *Engine) SetOption(name, value string) error {
	return e.send(fmt.Sprintf("setoption name %s value %s", name, value))
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.state.currentPhase()
}

// Close tears down the subprocess. The reader goroutine exits on its own
// once the engine's stdout closes.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proc.close()
}
