package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manuelpepe/async-uci/internal/obslog"
	"github.com/manuelpepe/async-uci/internal/preset"
	"github.com/manuelpepe/async-uci/internal/uci"
)

const (
	resultPollInterval = 50 * time.Millisecond
	searchGraceTime    = 5 * time.Second
)

// ErrInvalidRequest marks caller errors (unknown preset, unparsable FEN)
// as opposed to engine or pool failures.
var ErrInvalidRequest = errors.New("invalid analysis request")

// ErrArchiveDisabled is returned by History when no repository is attached.
var ErrArchiveDisabled = errors.New("report archive not configured")

// Report is one completed engine analysis of a position.
type Report struct {
	ID         string         `json:"id"`
	FEN        string         `json:"fen"`
	Preset     string         `json:"preset"`
	BestMove   string         `json:"best_move"`
	Ponder     string         `json:"ponder,omitempty"`
	Eval       uci.Evaluation `json:"eval"`
	DurationMS int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Service runs analyses against a pool of warm engines, with a
// read-through report cache and optional archival.
type Service struct {
	pool  *uci.Pool
	store Store
	repo  *Repository
	log   *zap.Logger
}

func NewService(pool *uci.Pool, store Store) *Service {
	return &Service{
		pool:  pool,
		store: store,
		log:   obslog.L().Named("analysis"),
	}
}

// AttachRepository enables Postgres archival of completed reports.
func (s *Service) AttachRepository(repo *Repository) {
	s.repo = repo
}

// Analyze returns the engine's analysis of the position, serving from the
// cache when an identical fen/preset pair was analyzed recently.
func (s *Service) Analyze(ctx context.Context, fen, presetName string) (*Report, error) {
	p, err := preset.Get(presetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := nchess.FEN(fen); err != nil {
		return nil, fmt.Errorf("%w: invalid fen %q: %v", ErrInvalidRequest, fen, err)
	}

	if s.store != nil {
		if cached, err := s.store.Get(ctx, fen, p.Name); err == nil && cached != nil {
			s.log.Debug("cache hit", zap.String("fen", fen), zap.String("preset", p.Name))
			return cached, nil
		}
	}

	report, err := s.analyze(ctx, fen, p)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Put(ctx, report); err != nil {
			s.log.Warn("cache report", zap.Error(err))
		}
	}
	if s.repo != nil {
		if err := s.repo.SaveReport(ctx, report); err != nil {
			s.log.Warn("archive report", zap.Error(err))
		}
	}
	return report, nil
}

// History returns archived reports for a position, newest first, across
// all presets.
func (s *Service) History(ctx context.Context, fen string, limit int) ([]*Report, error) {
	if _, err := nchess.FEN(fen); err != nil {
		return nil, fmt.Errorf("%w: invalid fen %q: %v", ErrInvalidRequest, fen, err)
	}
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	return s.repo.RecentReports(ctx, fen, limit)
}

// Options reports the option list advertised by an engine running the
// named preset's settings.
func (s *Service) Options(ctx context.Context, presetName string) ([]uci.EngineOption, error) {
	p, err := preset.Get(presetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	eng, err := s.pool.Acquire(ctx, uci.Settings{
		Threads: p.Threads,
		HashMB:  p.HashMB,
		MultiPV: p.MultiPV,
	})
	if err != nil {
		return nil, err
	}
	opts := eng.Options()
	s.pool.Release(eng, nil)
	return opts, nil
}

func (s *Service) analyze(ctx context.Context, fen string, p preset.AnalysisPreset) (*Report, error) {
	eng, err := s.pool.Acquire(ctx, uci.Settings{
		Threads: p.Threads,
		HashMB:  p.HashMB,
		MultiPV: p.MultiPV,
	})
	if err != nil {
		return nil, err
	}
	var failed error
	defer func() {
		s.pool.Release(eng, failed)
	}()

	if err := eng.SetPosition(fen); err != nil {
		failed = err
		return nil, err
	}

	start := time.Now()
	if err := s.startSearch(eng, p); err != nil {
		failed = err
		return nil, err
	}

	best, err := s.awaitResult(ctx, eng, p)
	if err != nil {
		failed = err
		return nil, err
	}
	dur := time.Since(start)

	if err := eng.Stop(); err != nil {
		failed = err
		return nil, err
	}

	eval, _ := eng.Evaluation()
	return &Report{
		ID:         uuid.NewString(),
		FEN:        fen,
		Preset:     p.Name,
		BestMove:   best.Move,
		Ponder:     best.Ponder,
		Eval:       eval,
		DurationMS: dur.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (s *Service) startSearch(eng *uci.Engine, p preset.AnalysisPreset) error {
	switch {
	case p.Infinite:
		return eng.GoInfinite()
	case p.MateIn > 0:
		return eng.GoMate(p.MateIn)
	case p.MoveTimeMillis > 0:
		return eng.GoTime(p.MoveTimeMillis)
	case p.Depth > 0:
		return eng.GoDepth(p.Depth)
	default:
		return fmt.Errorf("preset %q has no search limit", p.Name)
	}
}

// awaitResult polls for the bestmove the engine prints when a bounded
// search finishes. Infinite searches have no natural end, so they run for
// the preset's deadline and are stopped with whatever evaluation has
// accumulated.
func (s *Service) awaitResult(ctx context.Context, eng *uci.Engine, p preset.AnalysisPreset) (uci.BestMove, error) {
	deadline := time.NewTimer(searchDeadline(p))
	defer deadline.Stop()
	ticker := time.NewTicker(resultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = eng.Stop()
			return uci.BestMove{}, ctx.Err()
		case <-deadline.C:
			if p.Infinite {
				if err := eng.Stop(); err != nil {
					return uci.BestMove{}, err
				}
				return s.collectLateBestMove(ctx, eng)
			}
			return uci.BestMove{}, fmt.Errorf("search exceeded deadline for preset %q", p.Name)
		case <-ticker.C:
			if bm, ok := eng.BestMove(); ok {
				return bm, nil
			}
		}
	}
}

// collectLateBestMove waits briefly for the bestmove an engine prints in
// response to stop.
func (s *Service) collectLateBestMove(ctx context.Context, eng *uci.Engine) (uci.BestMove, error) {
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	ticker := time.NewTicker(resultPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-waitCtx.Done():
			// Fall back to the top of the principal variation.
			if eval, ok := eng.Evaluation(); ok && len(eval.PV) > 0 {
				return uci.BestMove{Move: eval.PV[0]}, nil
			}
			return uci.BestMove{}, fmt.Errorf("engine produced no best move")
		case <-ticker.C:
			if bm, ok := eng.BestMove(); ok {
				return bm, nil
			}
		}
	}
}

func searchDeadline(p preset.AnalysisPreset) time.Duration {
	switch {
	case p.Infinite:
		if p.MoveTimeMillis > 0 {
			return time.Duration(p.MoveTimeMillis) * time.Millisecond
		}
		return 10 * time.Second
	case p.MoveTimeMillis > 0:
		return time.Duration(p.MoveTimeMillis)*time.Millisecond + searchGraceTime
	case p.Depth > 0:
		base := time.Duration(p.Depth) * 500 * time.Millisecond
		if base < 10*time.Second {
			base = 10 * time.Second
		}
		return base + searchGraceTime
	default:
		return 30 * time.Second
	}
}
