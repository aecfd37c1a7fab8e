package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository archives completed reports in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	r := &Repository{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return r, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS analysis_reports (
	    report_id   TEXT PRIMARY KEY,
	    fen         TEXT NOT NULL,
	    preset      TEXT NOT NULL,
	    best_move   TEXT NOT NULL DEFAULT '',
	    ponder      TEXT NOT NULL DEFAULT '',
	    eval_cp     BIGINT NOT NULL DEFAULT 0,
	    eval_mate   BIGINT NOT NULL DEFAULT 0,
	    depth       BIGINT NOT NULL DEFAULT 0,
	    seldepth    BIGINT NOT NULL DEFAULT 0,
	    nodes       BIGINT NOT NULL DEFAULT 0,
	    multipv     BIGINT NOT NULL DEFAULT 0,
	    pv          TEXT NOT NULL DEFAULT '[]',
	    duration_ms BIGINT NOT NULL DEFAULT 0,
	    created_at  TIMESTAMPTZ NOT NULL
	  );
	  CREATE INDEX IF NOT EXISTS analysis_reports_fen_idx
	    ON analysis_reports (fen, created_at DESC)`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveReport upserts one analysis report keyed by its id.
func (r *Repository) SaveReport(ctx context.Context, rep *Report) error {
	if r == nil || r.db == nil || rep == nil {
		return nil
	}

	pvRaw, _ := json.Marshal(rep.Eval.PV)

	q := `INSERT INTO analysis_reports (
	    report_id, fen, preset, best_move, ponder,
	    eval_cp, eval_mate, depth, seldepth, nodes, multipv, pv,
	    duration_ms, created_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
	  ) ON CONFLICT (report_id) DO UPDATE SET
	    best_move=EXCLUDED.best_move,
	    ponder=EXCLUDED.ponder,
	    eval_cp=EXCLUDED.eval_cp,
	    eval_mate=EXCLUDED.eval_mate,
	    depth=EXCLUDED.depth,
	    seldepth=EXCLUDED.seldepth,
	    nodes=EXCLUDED.nodes,
	    multipv=EXCLUDED.multipv,
	    pv=EXCLUDED.pv,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.FEN, rep.Preset, rep.BestMove, rep.Ponder,
		rep.Eval.CP, rep.Eval.Mate, rep.Eval.Depth, rep.Eval.SelDepth,
		rep.Eval.Nodes, rep.Eval.MultiPV, string(pvRaw),
		rep.DurationMS, rep.CreatedAt,
	)
	return err
}

// RecentReports returns the latest archived reports for a position, any
// preset, newest first.
func (r *Repository) RecentReports(ctx context.Context, fen string, limit int) ([]*Report, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	q := `SELECT report_id, fen, preset, best_move, ponder,
	    eval_cp, eval_mate, depth, seldepth, nodes, multipv, pv,
	    duration_ms, created_at
	  FROM analysis_reports
	  WHERE fen = $1
	  ORDER BY created_at DESC
	  LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, fen, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		var rep Report
		var pvRaw string
		if err := rows.Scan(
			&rep.ID, &rep.FEN, &rep.Preset, &rep.BestMove, &rep.Ponder,
			&rep.Eval.CP, &rep.Eval.Mate, &rep.Eval.Depth, &rep.Eval.SelDepth,
			&rep.Eval.Nodes, &rep.Eval.MultiPV, &pvRaw,
			&rep.DurationMS, &rep.CreatedAt,
		); err != nil {
			return nil, err
		}
		if pvRaw != "" {
			_ = json.Unmarshal([]byte(pvRaw), &rep.Eval.PV)
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
