package geometry

import (
	"math"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// Quad represents a rectangular surface defined by a corner and two edge vectors
type Quad struct {
	Corner  core.Vec3
	U       core.Vec3
	V       core.Vec3
	Normal  core.Vec3 // normalized U × V
	Surface Surface
	D       float64   // plane constant: Normal · p = D
	W       core.Vec3 // cached for barycentric coordinates
	bbox    AABB
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, surface Surface) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()
	return &Quad{
		Corner:  corner,
		U:       u,
		V:       v,
		Normal:  normal,
		Surface: surface,
		D:       normal.Dot(corner),
		W:       cross.Multiply(1.0 / cross.Dot(cross)),
		bbox:    NewAABBFromPoints(corner, corner.Add(u), corner.Add(v), corner.Add(u).Add(v)).Expand(1e-4),
	}
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(q.Normal)
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	point := ray.At(t)
	rel := point.Subtract(q.Corner)
	alpha := q.W.Dot(rel.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(rel))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}

	hit := &HitRecord{T: t, Point: point, Surface: q.Surface}
	hit.SetFaceNormal(ray, q.Normal)
	return hit, true
}

// BoundingBox returns the padded bounds of the quad
func (q *Quad) BoundingBox() AABB {
	return q.bbox
}

// Owner returns the actor that owns the quad
func (q *Quad) Owner() core.Handle {
	return q.Surface.Actor
}
