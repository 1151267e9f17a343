package integrator

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

// TestSampler replays predetermined values and panics when it runs dry
type TestSampler struct {
	values1D []float64
	values2D []core.Vec2
	index1D  int
	index2D  int
}

// NewTestSampler creates a sampler with predetermined values for each dimension
func NewTestSampler(values1D []float64, values2D []core.Vec2) *TestSampler {
	return &TestSampler{values1D: values1D, values2D: values2D}
}

// Get1D returns the next predetermined 1D value
func (t *TestSampler) Get1D() float64 {
	if t.index1D >= len(t.values1D) {
		panic("TestSampler ran out of 1D values")
	}
	val := t.values1D[t.index1D]
	t.index1D++
	return val
}

// Get2D returns the next predetermined 2D value
func (t *TestSampler) Get2D() core.Vec2 {
	if t.index2D >= len(t.values2D) {
		panic("TestSampler ran out of 2D values")
	}
	val := t.values2D[t.index2D]
	t.index2D++
	return val
}

// countingQuery records how often the scene was asked
type countingQuery struct {
	inner scene.Query
	calls int
}

func (c *countingQuery) Query(origin, direction core.Vec3, maxDistance float64, ignore []core.Handle) (scene.Hit, bool) {
	c.calls++
	return c.inner.Query(origin, direction, maxDistance, ignore)
}

// straightDown is the uniform-sphere sample that maps to -Z
var straightDown = core.NewVec2(1, 0)

// floorScene has a single large floor at z=0 with the given material and an
// origin actor above it
func floorScene(absorption float32) (*scene.Scene, Origin) {
	s := scene.New("floor")
	mat := s.Materials.Register(material1(absorption))
	floor := s.AddActor("floor", scene.Transform{})
	s.AddWall(floor, mat, core.NewVec3(-50, -50, 0), core.NewVec3(100, 0, 0), core.NewVec3(0, 100, 0))
	pos := core.NewVec3(0, 0, 1)
	src := s.AddActor("source", scene.Transform{Position: pos})
	return s, Origin{Actor: src, Position: pos}
}
