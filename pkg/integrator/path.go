// Package integrator traces stochastic acoustic paths between a source and a
// listener and turns them into weighted energy arrivals.
package integrator

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// PathNode is one vertex of a sound path. Immutable once appended.
type PathNode struct {
	Position    core.Vec3
	Normal      core.Vec3       // zero at the path origin
	Material    material.Handle // zero or stale when the surface has none
	Probability float32         // density of the incoming direction, scaled by the roulette probability
	Bounce      int
}

// OnSurface reports whether the node lies on a surface rather than at an emitter
func (n PathNode) OnSurface() bool {
	return !n.Normal.IsNearlyZero(0)
}

// SoundPath is a sequence of nodes in travel order. Connected paths also
// record where the two subpaths were joined.
type SoundPath struct {
	Nodes []PathNode

	// Filled in by Evaluator.EvaluatePath
	TotalLength         float32
	EnergyContribution  float32
	SamplingProbability float32

	Connected          bool
	ForwardConnection  core.Vec3
	BackwardConnection core.Vec3
	ForwardBounces     int
	BackwardBounces    int

	generation uint32
}

// Len returns the number of nodes
func (p *SoundPath) Len() int {
	return len(p.Nodes)
}

// Endpoint returns the last node of the path
func (p *SoundPath) Endpoint() (PathNode, bool) {
	if len(p.Nodes) == 0 {
		return PathNode{}, false
	}
	return p.Nodes[len(p.Nodes)-1], true
}

// Bounces returns the number of surface interactions on a connected path
func (p *SoundPath) Bounces() int {
	return p.ForwardBounces + p.BackwardBounces
}

// IsDirect reports whether a connected path joins the two origins with no bounce
func (p *SoundPath) IsDirect() bool {
	return p.Connected && p.Bounces() == 0
}

// PathEnergyResult is the arrival produced by one evaluated path
type PathEnergyResult struct {
	DelaySeconds float32
	Gain         float32
}
