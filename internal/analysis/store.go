package analysis

import "context"

// Store caches completed reports keyed by position and preset.
type Store interface {
	Get(ctx context.Context, fen, preset string) (*Report, error)
	Put(ctx context.Context, report *Report) error
}
