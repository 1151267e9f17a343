package geometry

import (
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
)

// Surface tags a shape with the actor that owns it and its acoustic material
type Surface struct {
	Actor    core.Handle
	Material material.Handle
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Surface normal facing the incoming ray
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	Surface   Surface
}

// SetFaceNormal orients the normal against the ray and records which face was hit
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Shape interface for objects that can be hit by rays
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool)
	BoundingBox() AABB
	Owner() core.Handle
}
