package integrator

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

// Origin is where a subpath starts: an actor and its position
type Origin struct {
	Actor    core.Handle
	Position core.Vec3
}

// PathGenerator builds one subpath at a time by random-walking the scene
// from an origin. Directions are uniform on the sphere at the origin and
// cosine-weighted on surfaces. When Materials is set, a surface reflects
// specularly with the material's specular share of its reflected energy in
// Band. Every step survives Russian roulette with probability
// RussianRouletteProb.
type PathGenerator struct {
	Query               scene.Query
	Sampler             core.Sampler
	Arena               *Arena
	Materials           material.Provider
	Band                int
	RussianRouletteProb float64
	SurfaceOffset       float64
	MaxRayDistance      float64

	scratch []PathNode
	ignore  [1]core.Handle
}

// GeneratePath walks from origin until roulette, a miss, or maxBounces surface
// hits. A single-node path is valid.
func (g *PathGenerator) GeneratePath(origin Origin, maxBounces int) SoundPath {
	g.scratch = g.scratch[:0]
	g.ignore[0] = origin.Actor

	node := PathNode{Position: origin.Position, Probability: 1}
	for bounce := 0; ; bounce++ {
		node.Bounce = bounce
		g.scratch = append(g.scratch, node)

		if bounce >= maxBounces {
			break
		}
		if g.Sampler.Get1D() >= g.RussianRouletteProb {
			break
		}

		var incoming core.Vec3
		if n := len(g.scratch); n > 1 {
			incoming = node.Position.Subtract(g.scratch[n-2].Position).Normalize()
		}
		direction, pdf := g.sampleDirection(node, incoming)
		if pdf <= 0 {
			break
		}

		hit, ok := g.Query.Query(node.Position, direction, g.MaxRayDistance, g.ignore[:])
		if !ok {
			break
		}

		node = PathNode{
			Position:    hit.Point.Add(hit.Normal.Multiply(g.SurfaceOffset)),
			Normal:      hit.Normal,
			Material:    hit.Material,
			Probability: float32(pdf * g.RussianRouletteProb),
		}
	}

	if g.Arena == nil {
		return SoundPath{Nodes: append([]PathNode(nil), g.scratch...)}
	}
	return g.Arena.NewPath(g.scratch)
}

// sampleDirection picks the next direction. The specular lobe reports the
// cosine density of the mirror direction so both lobes carry the same scale
// and the lobe choice only redistributes directions.
func (g *PathGenerator) sampleDirection(node PathNode, incoming core.Vec3) (core.Vec3, float64) {
	if !node.OnSurface() {
		return core.SampleOnUnitSphere(g.Sampler.Get2D()), core.UniformSpherePDF
	}
	if share := g.specularShare(node, incoming); share > 0 && g.Sampler.Get1D() < share {
		mirror := incoming.Subtract(node.Normal.Multiply(2 * incoming.Dot(node.Normal))).Normalize()
		return mirror, core.CosineHemispherePDF(node.Normal, mirror)
	}
	direction := core.SampleCosineHemisphere(node.Normal, g.Sampler.Get2D())
	return direction, core.CosineHemispherePDF(node.Normal, direction)
}

// specularShare returns the fraction of reflected energy that leaves node
// specularly, 0 when it cannot be resolved
func (g *PathGenerator) specularShare(node PathNode, incoming core.Vec3) float64 {
	if g.Materials == nil || incoming.IsNearlyZero(0) {
		return 0
	}
	m, ok := g.Materials.Lookup(node.Material)
	if !ok {
		return 0
	}
	specular, diffuse := m.SplitReflection(g.Band)
	if specular <= 0 || specular+diffuse <= 0 {
		return 0
	}
	return float64(specular / (specular + diffuse))
}

// GeneratePath is a convenience wrapper that walks one path from origin with
// a fresh generator
func GeneratePath(q scene.Query, sampler core.Sampler, origin Origin, maxBounces int, rrProb, surfaceOffset, maxDistance float64) SoundPath {
	g := &PathGenerator{
		Query:               q,
		Sampler:             sampler,
		RussianRouletteProb: rrProb,
		SurfaceOffset:       surfaceOffset,
		MaxRayDistance:      maxDistance,
	}
	return g.GeneratePath(origin, maxBounces)
}
