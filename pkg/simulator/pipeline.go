package simulator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/impulse"
	"github.com/df07/go-progressive-acoustics/pkg/integrator"
	"github.com/df07/go-progressive-acoustics/pkg/material"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

var (
	ErrSourceMissing   = errors.New("source actor no longer exists")
	ErrListenerMissing = errors.New("listener actor no longer exists")
)

// World is what the simulator reads from the host scene. scene.Scene
// implements it.
type World interface {
	scene.Query
	scene.ActorLocator
	material.Provider
}

// SourceResult is the published outcome of one tick for one source.
// It is immutable once published.
type SourceResult struct {
	Source    core.Handle
	Tick      int
	Histogram *impulse.EnergyHistogram
	Response  impulse.ImpulseResponse
	Taps      []impulse.Tap
	Occlusion float32 // direct-line transmission, 1 = clear
	Stats     TickStats
}

// Pipeline runs generate, connect, evaluate, weight, bin and reconstruct
// for one source. It owns its histogram, arena and random generator and is
// not safe for concurrent use; the simulator runs each pipeline on at most
// one worker at a time.
type Pipeline struct {
	source   core.Handle
	listener core.Handle
	cfg      config.Config
	world    World
	logger   core.Logger

	arena         *integrator.Arena
	generator     *integrator.PathGenerator
	connector     *integrator.Connector
	evaluator     *integrator.Evaluator
	mis           integrator.MISCombiner
	histogram     *impulse.EnergyHistogram
	reconstructor *impulse.Reconstructor

	connected []integrator.SoundPath
	arrivals  []integrator.PathEnergyResult
	gains     []float32
	skip      []core.Handle
	tick      int
}

// NewPipeline creates the pipeline for source. seed fixes its random stream.
func NewPipeline(world World, source, listener core.Handle, cfg config.Config, seed int64, logger core.Logger) (*Pipeline, error) {
	reconstructor, err := impulse.NewReconstructor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconstructor: %w", err)
	}
	reconstructor.Epsilon = float32(cfg.EnergyEpsilon)
	histogram, err := impulse.NewEnergyHistogram(reconstructor.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	arena := integrator.NewArena(4 * cfg.RaysPerTick)
	skip := []core.Handle{source, listener}
	return &Pipeline{
		source:   source,
		listener: listener,
		cfg:      cfg,
		world:    world,
		logger:   logger,
		arena:    arena,
		generator: &integrator.PathGenerator{
			Query:               world,
			Sampler:             core.NewRandomSampler(rand.New(rand.NewSource(seed))),
			Arena:               arena,
			Materials:           world,
			Band:                cfg.Band,
			RussianRouletteProb: cfg.RussianRouletteProb,
			SurfaceOffset:       cfg.SurfaceOffset,
			MaxRayDistance:      cfg.MaxRayDistance,
		},
		connector: &integrator.Connector{
			Query: world,
			Arena: arena,
			Bias:  cfg.ConnectionBias,
			Skip:  skip,
		},
		evaluator:     integrator.NewEvaluator(cfg, world),
		mis:           integrator.MISCombiner{Enabled: cfg.MISEnabled},
		histogram:     histogram,
		reconstructor: reconstructor,
		skip:          skip,
	}, nil
}

// Source returns the actor this pipeline simulates
func (p *Pipeline) Source() core.Handle {
	return p.source
}

// Run traces one tick and returns a fresh result. The paths of the previous
// tick are released in bulk before tracing starts.
func (p *Pipeline) Run() (*SourceResult, error) {
	start := time.Now()
	src, ok := p.world.Locate(p.source)
	if !ok {
		return nil, ErrSourceMissing
	}
	lis, ok := p.world.Locate(p.listener)
	if !ok {
		return nil, ErrListenerMissing
	}

	p.tick++
	p.arena.Reset()
	p.histogram.FlushAll()
	p.connected = p.connected[:0]
	p.arrivals = p.arrivals[:0]
	stats := TickStats{Tick: p.tick}

	forward := integrator.Origin{Actor: p.source, Position: src.Position}
	backward := integrator.Origin{Actor: p.listener, Position: lis.Position}
	for i := 0; i < p.cfg.RaysPerTick; i++ {
		fwd := p.generator.GeneratePath(forward, p.cfg.MaxBounces)
		bwd := p.generator.GeneratePath(backward, p.cfg.MaxBounces)
		stats.ForwardNodes += fwd.Len()
		stats.BackwardNodes += bwd.Len()

		stats.Attempted++
		path, ok := p.connector.ConnectSubpaths(&fwd, &bwd)
		if !ok {
			continue
		}
		if path.IsDirect() && !p.cfg.IncludeDirectPath {
			stats.SkippedDirect++
			continue
		}
		arrival := p.evaluator.EvaluatePath(&path)
		p.connected = append(p.connected, path)
		p.arrivals = append(p.arrivals, arrival)
	}

	p.bin(lis, &stats)

	response, err := p.reconstructor.Reconstruct(p.histogram)
	if err != nil {
		return nil, err
	}
	result := &SourceResult{
		Source:    p.source,
		Tick:      p.tick,
		Histogram: p.histogram.Clone(),
		Response:  response,
		Taps:      impulse.ExtractTaps(p.histogram, 0, p.cfg.MaxTaps, p.cfg.TapWindowSeconds),
		Occlusion: integrator.EstimateOcclusion(p.world, p.world, src.Position, lis.Position,
			p.cfg.Band, p.cfg.MaxOcclusionLayers, p.skip),
	}

	stats.Duration = time.Since(start)
	result.Stats = stats
	if p.cfg.Verbose {
		p.logger.Printf("%d paths connected out of %d\n", stats.Connected, stats.Attempted)
	}
	return result, nil
}

// bin weights the evaluated paths and spreads them over the output channels.
// Each arrival contributes gain * weight / raysPerTick.
func (p *Pipeline) bin(lis scene.Transform, stats *TickStats) {
	weights := p.mis.PathWeights(p.connected)
	mapper := impulse.NewChannelMapper(p.cfg, lis.Right())
	scale := 1 / float32(p.cfg.RaysPerTick)

	for i := range p.connected {
		path := &p.connected[i]
		energy := p.arrivals[i].Gain * weights[i] * scale

		// the last segment arrives from the node before the listener
		var from core.Vec3
		if n := len(path.Nodes); n >= 2 {
			from = path.Nodes[n-2].Position.Subtract(lis.Position)
		}
		p.gains = mapper.Accumulate(p.histogram, from, p.arrivals[i].DelaySeconds, energy, p.gains)
		stats.addPath(path.Bounces(), energy)
	}
}
