package integrator

import (
	"math"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// Evaluator estimates the energy and arrival delay of a sound path.
// All arithmetic is float32.
type Evaluator struct {
	Materials           material.Provider
	Band                int
	AirAbsorption       float32 // per meter
	SpeedOfSound        float32 // meters per second
	ProbabilityExponent float32
	OutputGain          float32
	MinSegmentDistance  float32
	Epsilon             float32
}

// NewEvaluator creates an evaluator from the configuration
func NewEvaluator(cfg config.Config, materials material.Provider) *Evaluator {
	return &Evaluator{
		Materials:           materials,
		Band:                cfg.Band,
		AirAbsorption:       float32(cfg.AirAbsorptionCoefficient),
		SpeedOfSound:        float32(cfg.SpeedOfSound),
		ProbabilityExponent: float32(cfg.ProbabilityExponent),
		OutputGain:          float32(cfg.OutputGain),
		MinSegmentDistance:  float32(cfg.MinSegmentDistance),
		Epsilon:             float32(cfg.EnergyEpsilon),
	}
}

// EvaluatePath walks the segments of p, fills in TotalLength,
// EnergyContribution and SamplingProbability, and returns the arrival.
//
// Each segment i -> i+1 contributes the diffuse BSDF of node i, the
// spherical spreading 1/(4 pi d^2), air absorption exp(-k d) and the
// inverse sampling density of node i raised to ProbabilityExponent.
// Segments shorter than MinSegmentDistance only add distance.
func (e *Evaluator) EvaluatePath(p *SoundPath) PathEnergyResult {
	if len(p.Nodes) < 2 {
		p.TotalLength, p.EnergyContribution, p.SamplingProbability = 0, 0, 0
		return PathEnergyResult{}
	}

	energy := float32(1)
	distance := float32(0)
	probability := float32(1)

	for i := 0; i+1 < len(p.Nodes); i++ {
		node := &p.Nodes[i]
		d := float32(node.Position.Distance(p.Nodes[i+1].Position))
		distance += d
		if d < e.MinSegmentDistance || d <= 0 {
			continue
		}

		bsdf := e.bsdf(node)
		geometry := 1 / (4 * math.Pi * d * d)
		air := float32(math.Exp(float64(-e.AirAbsorption * d)))
		pdf := node.Probability
		if pdf < e.Epsilon {
			pdf = e.Epsilon
		}
		density := float32(math.Pow(float64(pdf), float64(e.ProbabilityExponent)))

		energy *= bsdf * geometry * air / density
		probability *= node.Probability
	}

	if energy > 1 {
		energy = 1
	}
	energy *= e.OutputGain
	if !finite(energy) {
		energy = 0
	}
	if !finite(probability) {
		probability = 0
	}

	p.TotalLength = distance
	p.EnergyContribution = energy
	p.SamplingProbability = probability

	delay := float32(0)
	if e.SpeedOfSound > 0 {
		delay = distance / e.SpeedOfSound
	}
	if !finite(delay) {
		delay = 0
	}
	return PathEnergyResult{DelaySeconds: delay, Gain: energy}
}

// bsdf is reflectivity/pi of the node's material, or 1 with no usable material
func (e *Evaluator) bsdf(node *PathNode) float32 {
	if e.Materials == nil || node.Material.IsZero() {
		return 1
	}
	m, ok := e.Materials.Lookup(node.Material)
	if !ok {
		return 1
	}
	return m.Reflectivity(e.Band) / math.Pi
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
