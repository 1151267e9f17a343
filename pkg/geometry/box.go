package geometry

import "github.com/df07/go-progressive-acoustics/pkg/core"

// Box represents a rectangular box made up of 6 quads with optional rotation
type Box struct {
	Center   core.Vec3
	Size     core.Vec3 // half-extents
	Rotation core.Vec3 // radians around X, Y, Z (applied in that order)
	Surface  Surface
	faces    [6]*Quad
	bbox     AABB
}

// NewBox creates a box. A size of (1,1,1) spans 2x2x2.
func NewBox(center, size, rotation core.Vec3, surface Surface) *Box {
	b := &Box{Center: center, Size: size, Rotation: rotation, Surface: surface}
	b.generateFaces()
	return b
}

// NewAxisAlignedBox creates a new axis-aligned box (no rotation)
func NewAxisAlignedBox(center, size core.Vec3, surface Surface) *Box {
	return NewBox(center, size, core.Vec3{}, surface)
}

// faceCorners lists, per face, the corner index and the two corners that
// span its edges. Edge order keeps every normal pointing outward.
var faceCorners = [6][3]int{
	{4, 5, 7}, // +Z
	{1, 0, 2}, // -Z
	{5, 1, 6}, // +X
	{0, 4, 3}, // -X
	{3, 7, 2}, // +Y
	{4, 0, 5}, // -Y
}

func (b *Box) generateFaces() {
	var corners [8]core.Vec3
	for i := range corners {
		unit := boxCorner(i)
		scaled := core.NewVec3(unit.X*b.Size.X, unit.Y*b.Size.Y, unit.Z*b.Size.Z)
		corners[i] = scaled.Rotate(b.Rotation).Add(b.Center)
	}

	for f, idx := range faceCorners {
		origin := corners[idx[0]]
		b.faces[f] = NewQuad(origin,
			corners[idx[1]].Subtract(origin),
			corners[idx[2]].Subtract(origin),
			b.Surface)
	}
	b.bbox = NewAABBFromPoints(corners[:]...).Expand(1e-4)
}

// boxCorner returns the unit-box corner i: 0-3 on the back face (z=-1)
// counter-clockwise from left-bottom, 4-7 the same on the front face.
func boxCorner(i int) core.Vec3 {
	xs := [4]float64{-1, 1, 1, -1}
	ys := [4]float64{-1, -1, 1, 1}
	z := -1.0
	if i >= 4 {
		z = 1
	}
	return core.NewVec3(xs[i%4], ys[i%4], z)
}

// Faces returns the six quads of the box
func (b *Box) Faces() []*Quad {
	return b.faces[:]
}

// Hit tests if a ray intersects with any face of the box
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	var closest *HitRecord
	closestT := tMax
	for _, face := range b.faces {
		if hit, ok := face.Hit(ray, tMin, closestT); ok {
			closestT = hit.T
			closest = hit
		}
	}
	return closest, closest != nil
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() AABB {
	return b.bbox
}

// Owner returns the actor that owns the box
func (b *Box) Owner() core.Handle {
	return b.Surface.Actor
}
