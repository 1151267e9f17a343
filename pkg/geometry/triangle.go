package geometry

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	Surface    Surface
	normal     core.Vec3 // Cached normal vector
	bbox       AABB      // Cached bounding box
}

// NewTriangle creates a new triangle from three vertices. The winding
// V0, V1, V2 gives the outward normal.
func NewTriangle(v0, v1, v2 core.Vec3, surface Surface) *Triangle {
	return &Triangle{
		V0:      v0,
		V1:      v1,
		V2:      v2,
		Surface: surface,
		normal:  v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize(),
		bbox:    NewAABBFromPoints(v0, v1, v2).Expand(1e-4),
	}
}

// Hit tests if a ray intersects with the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	const epsilon = 1e-8

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -epsilon && a < epsilon {
		return nil, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return nil, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return nil, false
	}

	tHit := f * edge2.Dot(q)
	if tHit < tMin || tHit > tMax {
		return nil, false
	}

	hit := &HitRecord{T: tHit, Point: ray.At(tHit), Surface: t.Surface}
	hit.SetFaceNormal(ray, t.normal)
	return hit, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() AABB {
	return t.bbox
}

// Owner returns the actor that owns the triangle
func (t *Triangle) Owner() core.Handle {
	return t.Surface.Actor
}

// Normal returns the triangle's unit normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}
