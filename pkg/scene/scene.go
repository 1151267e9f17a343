package scene

import (
	"math"
	"sync"

	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/geometry"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// Hit describes the nearest intersection reported by a Query
type Hit struct {
	Point    core.Vec3
	Normal   core.Vec3 // faces back toward the query origin
	Material material.Handle
	Actor    core.Handle
	Distance float64
}

// Query casts a ray into the world and reports the nearest hit within
// maxDistance, skipping surfaces owned by any actor in ignore. Failing to
// answer is reported the same way as a miss.
type Query interface {
	Query(origin, direction core.Vec3, maxDistance float64, ignore []core.Handle) (Hit, bool)
}

// Transform is the world placement of an actor
type Transform struct {
	Position core.Vec3
	Rotation core.Vec3 // radians around X, Y, Z
}

// Right returns the actor's local +X axis in world space
func (t Transform) Right() core.Vec3 {
	return core.NewVec3(1, 0, 0).Rotate(t.Rotation)
}

// Forward returns the actor's local -Z axis in world space
func (t Transform) Forward() core.Vec3 {
	return core.NewVec3(0, 0, -1).Rotate(t.Rotation)
}

// ActorLocator resolves actor handles to their current transform
type ActorLocator interface {
	Locate(actor core.Handle) (Transform, bool)
}

// Actor is an entity placed in the scene. Actors may own geometry.
type Actor struct {
	Name      string
	Transform Transform
}

// Scene is the in-memory reference world: actors, materials and geometry
// behind a BVH. Queries may run concurrently with each other; mutations take
// the write lock and rebuild the BVH.
type Scene struct {
	Name        string
	Description string
	Source      core.Handle // default emitting actor, zero if none
	Listener    core.Handle // default listening actor, zero if none

	Materials *material.Registry

	mu     sync.RWMutex
	actors *core.Registry[Actor]
	shapes []geometry.Shape
	bvh    *geometry.BVH
}

// New creates an empty scene
func New(name string) *Scene {
	return &Scene{
		Name:      name,
		Materials: material.NewRegistry(),
		actors:    core.NewRegistry[Actor](),
		bvh:       geometry.NewBVH(nil),
	}
}

// AddActor places a new actor and returns its handle
func (s *Scene) AddActor(name string, transform Transform) core.Handle {
	return s.actors.Insert(Actor{Name: name, Transform: transform})
}

// MoveActor updates an actor transform. Geometry owned by the actor is not moved.
func (s *Scene) MoveActor(h core.Handle, transform Transform) bool {
	a, ok := s.actors.Get(h)
	if !ok {
		return false
	}
	a.Transform = transform
	return s.actors.Set(h, a)
}

// RemoveActor deletes the actor and any geometry it owns
func (s *Scene) RemoveActor(h core.Handle) bool {
	if !s.actors.Remove(h) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.shapes[:0]
	for _, shape := range s.shapes {
		if shape.Owner() != h {
			kept = append(kept, shape)
		}
	}
	s.shapes = kept
	s.bvh = geometry.NewBVH(s.shapes)
	return true
}

// Actor returns the named actor data for h
func (s *Scene) Actor(h core.Handle) (Actor, bool) {
	return s.actors.Get(h)
}

// Locate implements ActorLocator
func (s *Scene) Locate(h core.Handle) (Transform, bool) {
	a, ok := s.actors.Get(h)
	if !ok {
		return Transform{}, false
	}
	return a.Transform, true
}

// Lookup implements material.Provider
func (s *Scene) Lookup(h material.Handle) (*material.AcousticMaterial, bool) {
	return s.Materials.Lookup(h)
}

// AddShapes inserts geometry and rebuilds the acceleration structure
func (s *Scene) AddShapes(shapes ...geometry.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes = append(s.shapes, shapes...)
	s.bvh = geometry.NewBVH(s.shapes)
}

// AddWall adds a quad owned by actor with the given material
func (s *Scene) AddWall(actor core.Handle, mat material.Handle, corner, u, v core.Vec3) *geometry.Quad {
	q := geometry.NewQuad(corner, u, v, geometry.Surface{Actor: actor, Material: mat})
	s.AddShapes(q)
	return q
}

// AddBox adds an axis-aligned box with half-extents size
func (s *Scene) AddBox(actor core.Handle, mat material.Handle, center, size core.Vec3) *geometry.Box {
	b := geometry.NewAxisAlignedBox(center, size, geometry.Surface{Actor: actor, Material: mat})
	s.AddShapes(b)
	return b
}

// AddSphere adds a sphere
func (s *Scene) AddSphere(actor core.Handle, mat material.Handle, center core.Vec3, radius float64) *geometry.Sphere {
	sp := geometry.NewSphere(center, radius, geometry.Surface{Actor: actor, Material: mat})
	s.AddShapes(sp)
	return sp
}

// ShapeCount returns the number of shapes in the scene
func (s *Scene) ShapeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shapes)
}

// ActorCount returns the number of live actors
func (s *Scene) ActorCount() int {
	return s.actors.Len()
}

// minHitDistance keeps a ray from re-hitting the surface it starts on
const minHitDistance = 1e-6

// Query implements Query against the scene BVH
func (s *Scene) Query(origin, direction core.Vec3, maxDistance float64, ignore []core.Handle) (Hit, bool) {
	dir := direction.Normalize()
	if dir.IsNearlyZero(0) || math.IsNaN(maxDistance) || maxDistance <= minHitDistance {
		return Hit{}, false
	}

	s.mu.RLock()
	bvh := s.bvh
	s.mu.RUnlock()

	rec, ok := bvh.Hit(core.NewRay(origin, dir), minHitDistance, maxDistance, ignore)
	if !ok {
		return Hit{}, false
	}
	return Hit{
		Point:    rec.Point,
		Normal:   rec.Normal,
		Material: rec.Surface.Material,
		Actor:    rec.Surface.Actor,
		Distance: rec.T,
	}, true
}

// SerialDispatcher funnels every query through a mutex. Use it to wrap a
// Query implementation that cannot be called from several goroutines.
type SerialDispatcher struct {
	mu    sync.Mutex
	inner Query
}

// NewSerialDispatcher wraps q
func NewSerialDispatcher(q Query) *SerialDispatcher {
	return &SerialDispatcher{inner: q}
}

// Query implements Query
func (d *SerialDispatcher) Query(origin, direction core.Vec3, maxDistance float64, ignore []core.Handle) (Hit, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inner.Query(origin, direction, maxDistance, ignore)
}
