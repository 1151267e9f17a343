// Package simulator runs the per-source acoustic pipelines once per tick and
// publishes their impulse responses.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// ErrClosed is returned by Tick after Close
var ErrClosed = errors.New("simulator is closed")

// ActiveSource is a registered emitter. The actor handle is weak: the
// source is dropped at the next tick once the handle stops resolving.
type ActiveSource struct {
	Actor    core.Handle
	pipeline *Pipeline
	result   atomic.Pointer[SourceResult]
}

// Result returns the last published result, nil before the first tick
func (s *ActiveSource) Result() *SourceResult {
	return s.result.Load()
}

// Simulator owns the active-source set and the worker pool. Register and
// Unregister may be called from any goroutine, including while a tick runs;
// Tick itself must not be called concurrently.
type Simulator struct {
	world    World
	listener core.Handle
	cfg      config.Config
	logger   core.Logger
	pool     *WorkerPool

	mu      sync.Mutex
	sources []*ActiveSource
	closed  bool

	warmup time.Duration
	tick   int
}

// New creates a simulator for listener in world and starts its workers
func New(world World, listener core.Handle, cfg config.Config, logger core.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	pool := NewWorkerPool(cfg.NumWorkers)
	pool.Start()
	return &Simulator{
		world:    world,
		listener: listener,
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		warmup:   cfg.Warmup(),
	}, nil
}

// Config returns the configuration the simulator was built with
func (s *Simulator) Config() config.Config {
	return s.cfg
}

// Register adds actor as an active source. It returns false for the zero
// handle or an actor that is already registered.
func (s *Simulator) Register(actor core.Handle) bool {
	if actor.IsZero() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.Actor == actor {
			return false
		}
	}
	s.sources = append(s.sources, &ActiveSource{Actor: actor})
	return true
}

// Unregister removes actor from the active set
func (s *Simulator) Unregister(actor core.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, src := range s.sources {
		if src.Actor == actor {
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			return true
		}
	}
	return false
}

// Sources returns the registered actors in registration order
func (s *Simulator) Sources() []core.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	actors := make([]core.Handle, len(s.sources))
	for i, src := range s.sources {
		actors[i] = src.Actor
	}
	return actors
}

// Result returns the latest published result for actor
func (s *Simulator) Result(actor core.Handle) (*SourceResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.Actor == actor {
			r := src.Result()
			return r, r != nil
		}
	}
	return nil, false
}

// Advance consumes dt of the warm-up period and reports whether the
// simulator is ready to tick
func (s *Simulator) Advance(dt time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dt > 0 {
		s.warmup = max(0, s.warmup-dt)
	}
	return s.warmup == 0
}

// Ready reports whether the warm-up period has elapsed
func (s *Simulator) Ready() bool {
	return s.Advance(0)
}

// RemainingWarmup returns how much of the warm-up period is left
func (s *Simulator) RemainingWarmup() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warmup
}

// compact drops sources whose actor no longer resolves and returns the
// remaining set. Pipelines are created here for new sources.
func (s *Simulator) compact() ([]*ActiveSource, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrClosed
	}

	kept := s.sources[:0]
	dropped := 0
	for _, src := range s.sources {
		if _, ok := s.world.Locate(src.Actor); !ok {
			dropped++
			s.logger.Printf("Dropping stale source %d:%d\n", src.Actor.Index, src.Actor.Generation)
			continue
		}
		if src.pipeline == nil {
			seed := s.cfg.Seed + int64(src.Actor.Index) + int64(src.Actor.Generation)<<32
			p, err := NewPipeline(s.world, src.Actor, s.listener, s.cfg, seed, s.logger)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to create pipeline: %w", err)
			}
			src.pipeline = p
		}
		kept = append(kept, src)
	}
	clear(s.sources[len(kept):])
	s.sources = kept

	active := make([]*ActiveSource, len(kept))
	copy(active, kept)
	return active, dropped, nil
}

// Tick runs one pipeline per active source on the worker pool and publishes
// every result atomically once its reconstruction is complete. A missing
// listener fails the tick without touching published results. Until the
// warm-up period has been consumed with Advance, Tick does nothing and
// returns a summary with WarmingUp set.
func (s *Simulator) Tick(ctx context.Context) (TickSummary, error) {
	if err := ctx.Err(); err != nil {
		return TickSummary{}, err
	}
	if !s.Ready() {
		return TickSummary{Tick: s.tick, WarmingUp: true}, nil
	}
	if _, ok := s.world.Locate(s.listener); !ok {
		return TickSummary{}, ErrListenerMissing
	}

	start := time.Now()
	active, dropped, err := s.compact()
	if err != nil {
		return TickSummary{}, err
	}
	s.tick++
	summary := TickSummary{Tick: s.tick, Sources: len(active), Dropped: dropped}

	go func() {
		for i, src := range active {
			s.pool.SubmitTask(SourceTask{TaskID: i, Pipeline: src.pipeline})
		}
	}()

	results := make([]*SourceResult, len(active))
	var errs []error
	for range active {
		r, ok := s.pool.GetResult()
		if !ok {
			return summary, fmt.Errorf("worker pool closed unexpectedly")
		}
		if r.Error != nil {
			// the actor went away mid-tick; it is compacted next tick
			if errors.Is(r.Error, ErrSourceMissing) {
				continue
			}
			errs = append(errs, r.Error)
			continue
		}
		r.Result.Tick = s.tick
		r.Result.Stats.Tick = s.tick
		active[r.TaskID].result.Store(r.Result)
		results[r.TaskID] = r.Result
	}

	for _, r := range results {
		if r != nil {
			summary.Results = append(summary.Results, r)
		}
	}
	summary.Duration = time.Since(start)
	if s.cfg.Verbose {
		s.logger.Printf("Tick %d: %d sources in %v (using %d workers)\n",
			summary.Tick, summary.Sources, summary.Duration, s.pool.GetNumWorkers())
	}
	return summary, errors.Join(errs...)
}

// Run waits out the remaining warm-up on the wall clock, then ticks until
// ticks have completed (0 = until ctx is done), streaming a summary per
// tick. Both channels are closed when it returns.
func (s *Simulator) Run(ctx context.Context, ticks int) (<-chan TickSummary, <-chan error) {
	tickChan := make(chan TickSummary, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(tickChan)
		defer close(errChan)

		if remaining := s.RemainingWarmup(); remaining > 0 {
			s.logger.Printf("Warming up for %v\n", remaining)
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				errChan <- ctx.Err()
				return
			case <-timer.C:
				s.Advance(remaining)
			}
		}

		for n := 1; ticks <= 0 || n <= ticks; n++ {
			select {
			case <-ctx.Done():
				s.logger.Printf("Simulation cancelled before tick %d\n", n)
				errChan <- ctx.Err()
				return
			default:
			}

			summary, err := s.Tick(ctx)
			if err != nil {
				errChan <- err
				return
			}

			select {
			case tickChan <- summary:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tickChan, errChan
}

// Close stops the workers and must not race with Tick. Published results
// stay readable.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.pool.Stop()
}
