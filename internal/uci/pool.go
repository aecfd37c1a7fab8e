package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
)

// Settings are the engine options a pooled engine is configured with at
// spawn time. Engines are bucketed by settings so a released engine is
// only ever reused for an identical configuration.
type Settings struct {
	Threads int
	HashMB  int
	MultiPV int
}

func (s Settings) key() string {
	return fmt.Sprintf("thr=%d|hash=%d|multipv=%d", s.Threads, s.HashMB, s.MultiPV)
}

type PoolConfig struct {
	BinaryPath       string
	PerSettingsLimit int
}

// Pool keeps warm, handshake-completed engines for reuse across analyses.
type Pool struct {
	binaryPath       string
	perSettingsLimit int

	mu      sync.Mutex
	buckets map[string]*engineBucket
	leased  map[*Engine]*engineBucket
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}

	limit := cfg.PerSettingsLimit
	if limit <= 0 {
		limit = defaultPerSettingsLimit()
	}

	return &Pool{
		binaryPath:       cfg.BinaryPath,
		perSettingsLimit: limit,
		buckets:          make(map[string]*engineBucket),
		leased:           make(map[*Engine]*engineBucket),
	}, nil
}

// Acquire returns a ready engine configured with the given settings,
// reusing an idle one when possible. Idle engines are health-checked with
// a new-game round trip before being handed out; ones that fail are
// discarded and replaced.
func (p *Pool) Acquire(ctx context.Context, set Settings) (*Engine, error) {
	bucket := p.getBucket(set)

	for {
		select {
		case eng := <-bucket.idle:
			if eng == nil {
				continue
			}
			if err := eng.NewGame(ctx); err != nil {
				bucket.discard(eng)
				continue
			}
			p.track(eng, bucket)
			return eng, nil
		default:
		}

		eng, err := bucket.create(ctx)
		if err == nil {
			p.track(eng, bucket)
			return eng, nil
		}
		if !errors.Is(err, errBucketAtCapacity) {
			return nil, err
		}

		select {
		case eng := <-bucket.idle:
			if eng == nil {
				continue
			}
			if err := eng.NewGame(ctx); err != nil {
				bucket.discard(eng)
				continue
			}
			p.track(eng, bucket)
			return eng, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns an engine to its bucket. A non-nil err means the engine
// may be in an unknown protocol state and it is discarded instead.
func (p *Pool) Release(eng *Engine, err error) {
	if eng == nil {
		return
	}

	p.mu.Lock()
	bucket, ok := p.leased[eng]
	if !ok {
		p.mu.Unlock()
		_ = eng.Close()
		return
	}
	delete(p.leased, eng)
	p.mu.Unlock()

	if err != nil {
		bucket.discard(eng)
		return
	}
	if !bucket.put(eng) {
		bucket.discard(eng)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	buckets := make([]*engineBucket, 0, len(p.buckets))
	for _, b := range p.buckets {
		buckets = append(buckets, b)
	}
	p.leased = make(map[*Engine]*engineBucket)
	p.mu.Unlock()

	var errs []error
	for _, bucket := range buckets {
	drain:
		for {
			select {
			case eng := <-bucket.idle:
				if eng == nil {
					continue
				}
				if err := eng.Close(); err != nil {
					errs = append(errs, err)
				}
				bucket.decrement()
			default:
				break drain
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (p *Pool) track(eng *Engine, bucket *engineBucket) {
	p.mu.Lock()
	p.leased[eng] = bucket
	p.mu.Unlock()
}

func (p *Pool) getBucket(set Settings) *engineBucket {
	key := set.key()
	p.mu.Lock()
	bucket, ok := p.buckets[key]
	if !ok {
		bucket = newEngineBucket(p.binaryPath, set, p.perSettingsLimit)
		p.buckets[key] = bucket
	}
	p.mu.Unlock()
	return bucket
}

type engineBucket struct {
	set        Settings
	capacity   int
	binaryPath string

	mu    sync.Mutex
	total int
	idle  chan *Engine
}

var errBucketAtCapacity = errors.New("engine bucket at capacity")

func newEngineBucket(binaryPath string, set Settings, capacity int) *engineBucket {
	if capacity <= 0 {
		capacity = 1
	}
	return &engineBucket{
		set:        set,
		capacity:   capacity,
		binaryPath: binaryPath,
		idle:       make(chan *Engine, capacity),
	}
}

func (b *engineBucket) create(ctx context.Context) (*Engine, error) {
	b.mu.Lock()
	if b.total >= b.capacity {
		b.mu.Unlock()
		return nil, errBucketAtCapacity
	}
	b.total++
	b.mu.Unlock()

	eng, err := NewEngine(b.binaryPath)
	if err != nil {
		b.decrement()
		return nil, err
	}
	if err := eng.StartUCI(ctx); err != nil {
		_ = eng.Close()
		b.decrement()
		return nil, err
	}
	if err := b.applySettings(eng); err != nil {
		_ = eng.Close()
		b.decrement()
		return nil, err
	}
	return eng, nil
}

func (b *engineBucket) applySettings(eng *Engine) error {
	threads := b.set.Threads
	if threads <= 0 {
		threads = 1
	}
	if err := eng.SetOption("Threads", strconv.Itoa(threads)); err != nil {
		return err
	}
	if b.set.HashMB > 0 {
		if err := eng.SetOption("Hash", strconv.Itoa(b.set.HashMB)); err != nil {
			return err
		}
	}
	if b.set.MultiPV > 0 {
		if err := eng.SetOption("MultiPV", strconv.Itoa(b.set.MultiPV)); err != nil {
			return err
		}
	}
	return nil
}

func (b *engineBucket) put(eng *Engine) bool {
	select {
	case b.idle <- eng:
		return true
	default:
		return false
	}
}

func (b *engineBucket) discard(eng *Engine) {
	if eng != nil {
		_ = eng.Close()
	}
	b.decrement()
}

func (b *engineBucket) decrement() {
	b.mu.Lock()
	if b.total > 0 {
		b.total--
	}
	b.mu.Unlock()
}

func defaultPerSettingsLimit() int {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		return 2
	}
	if cpu > 4 {
		return 4
	}
	return cpu
}
