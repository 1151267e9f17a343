package integrator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

func material1(absorption float32) *material.AcousticMaterial {
	return material.Uniform("test", absorption, 0, 1)
}

func TestGeneratePath_ZeroRouletteGivesSingleNode(t *testing.T) {
	s := scene.NewShoeboxScene()
	pos, _ := s.Locate(s.Source)

	path := GeneratePath(s, core.NewSeededSampler(1), Origin{Actor: s.Source, Position: pos.Position}, 16, 0, 1e-3, 1000)

	require.Equal(t, 1, path.Len())
	node := path.Nodes[0]
	assert.Equal(t, pos.Position, node.Position)
	assert.True(t, node.Normal.IsNearlyZero(0), "origin has no surface")
	assert.Equal(t, float32(1), node.Probability)
	assert.Equal(t, 0, node.Bounce)
}

func TestGeneratePath_DeterministicStep(t *testing.T) {
	s, origin := floorScene(0.2)
	sampler := NewTestSampler([]float64{0.5, 0.95}, []core.Vec2{straightDown})

	g := &PathGenerator{Query: s, Sampler: sampler, RussianRouletteProb: 0.9, SurfaceOffset: 0.01, MaxRayDistance: 100}
	path := g.GeneratePath(origin, 10)

	require.Equal(t, 2, path.Len())
	hit := path.Nodes[1]
	assert.InDelta(t, 0.01, hit.Position.Z, 1e-9, "hit point is offset along the normal")
	assert.InDelta(t, 1, hit.Normal.Z, 1e-9)
	assert.InDelta(t, 0.9/(4*math.Pi), float64(hit.Probability), 1e-6, "uniform sphere pdf times survival")
	assert.Equal(t, 1, hit.Bounce)
	assert.False(t, hit.Material.IsZero())
}

func TestGeneratePath_MissTerminates(t *testing.T) {
	s := scene.NewEmptyScene()
	pos, _ := s.Locate(s.Source)
	sampler := NewTestSampler([]float64{0.1}, []core.Vec2{core.NewVec2(0.3, 0.7)})

	g := &PathGenerator{Query: s, Sampler: sampler, RussianRouletteProb: 1, MaxRayDistance: 100}
	path := g.GeneratePath(Origin{Actor: s.Source, Position: pos.Position}, 10)
	assert.Equal(t, 1, path.Len())
}

func TestGeneratePath_BounceCap(t *testing.T) {
	s := scene.NewShoeboxScene()
	pos, _ := s.Locate(s.Source)

	// Roulette always survives in a closed room, so only the cap stops the walk
	g := &PathGenerator{Query: s, Sampler: core.NewSeededSampler(5), RussianRouletteProb: 1, SurfaceOffset: 1e-3, MaxRayDistance: 100}
	for _, maxBounces := range []int{0, 1, 5, 12} {
		path := g.GeneratePath(Origin{Actor: s.Source, Position: pos.Position}, maxBounces)
		require.Equal(t, maxBounces+1, path.Len(), "maxBounces=%d", maxBounces)

		for i, node := range path.Nodes {
			assert.Equal(t, i, node.Bounce)
			assert.Greater(t, node.Probability, float32(0))
			if i > 0 {
				assert.True(t, node.OnSurface())
				assert.InDelta(t, 1, node.Normal.Length(), 1e-9)
				// Inside the 8x3x5 room
				assert.True(t, node.Position.X > -4 && node.Position.X < 4, "node %v outside room", node.Position)
				assert.True(t, node.Position.Y > 0 && node.Position.Y < 3, "node %v outside room", node.Position)
			}
		}
	}
}

func TestGeneratePath_IgnoresOriginActor(t *testing.T) {
	s, origin := floorScene(0)
	// The source actor is wrapped in its own sphere; rays must pass through it
	s.AddSphere(origin.Actor, material.Handle{}, origin.Position, 0.25)

	sampler := NewTestSampler([]float64{0.5, 0.99}, []core.Vec2{straightDown})
	g := &PathGenerator{Query: s, Sampler: sampler, RussianRouletteProb: 0.9, MaxRayDistance: 100}
	path := g.GeneratePath(origin, 4)

	require.Equal(t, 2, path.Len())
	assert.InDelta(t, 0, path.Nodes[1].Position.Z, 1e-9, "expected the floor, not the source's own sphere")
}

func TestGeneratePath_UsesArena(t *testing.T) {
	s := scene.NewShoeboxScene()
	pos, _ := s.Locate(s.Source)
	arena := NewArena(0)

	g := &PathGenerator{Query: s, Sampler: core.NewSeededSampler(9), Arena: arena, RussianRouletteProb: 0.9, SurfaceOffset: 1e-3, MaxRayDistance: 100}
	a := g.GeneratePath(Origin{Actor: s.Source, Position: pos.Position}, 8)
	b := g.GeneratePath(Origin{Actor: s.Source, Position: pos.Position}, 8)

	assert.True(t, arena.Owns(&a))
	assert.True(t, arena.Owns(&b))
	assert.Equal(t, a.Len()+b.Len(), arena.Allocated())
	assert.Equal(t, pos.Position, a.Nodes[0].Position, "second path must not overwrite the first")
}

// mirrorRoom has a floor at z=0 and a ceiling at z=2 made of a fully
// specular material, with an origin actor halfway between them
func mirrorRoom() (*scene.Scene, Origin) {
	s := scene.New("mirror")
	mat := s.Materials.Register(material.Uniform("mirror", 0.2, 0, 0))
	room := s.AddActor("room", scene.Transform{})
	s.AddWall(room, mat, core.NewVec3(-50, -50, 0), core.NewVec3(100, 0, 0), core.NewVec3(0, 100, 0))
	s.AddWall(room, mat, core.NewVec3(-50, -50, 2), core.NewVec3(100, 0, 0), core.NewVec3(0, 100, 0))
	pos := core.NewVec3(0.5, 0, 1)
	src := s.AddActor("source", scene.Transform{Position: pos})
	return s, Origin{Actor: src, Position: pos}
}

func TestGeneratePath_SpecularSurfaceMirrors(t *testing.T) {
	s, origin := mirrorRoom()
	// roulette, roulette, lobe choice, roulette
	sampler := NewTestSampler([]float64{0.5, 0.5, 0.3, 0.99}, []core.Vec2{straightDown})

	g := &PathGenerator{Query: s, Sampler: sampler, Materials: s.Materials, Band: material.BandMid,
		RussianRouletteProb: 0.9, SurfaceOffset: 0.01, MaxRayDistance: 100}
	path := g.GeneratePath(origin, 10)

	require.Equal(t, 3, path.Len())
	ceiling := path.Nodes[2]
	assert.InDelta(t, 1.99, ceiling.Position.Z, 1e-9, "mirror of straight down is straight up")
	assert.InDelta(t, 0.5, ceiling.Position.X, 1e-9)
	assert.InDelta(t, -1, ceiling.Normal.Z, 1e-9)
	assert.InDelta(t, 0.9/math.Pi, float64(ceiling.Probability), 1e-6, "cosine density of the mirror direction")
}

func TestGeneratePath_DiffuseSurfaceSkipsLobeChoice(t *testing.T) {
	s, origin := floorScene(0.2)
	// A fully scattering floor draws no lobe sample, so two 1D values suffice
	sampler := NewTestSampler([]float64{0.5, 0.5}, []core.Vec2{straightDown, core.NewVec2(0.5, 0.5)})

	g := &PathGenerator{Query: s, Sampler: sampler, Materials: s.Materials, Band: material.BandMid,
		RussianRouletteProb: 0.9, SurfaceOffset: 0.01, MaxRayDistance: 100}
	path := g.GeneratePath(origin, 10)

	assert.Equal(t, 2, path.Len(), "the diffuse bounce leaves the open floor scene")
}
