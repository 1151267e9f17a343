package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

func TestBox_FaceNormalsPointOutward(t *testing.T) {
	box := NewAxisAlignedBox(core.Vec3{}, core.NewVec3(1, 2, 3), testSurface)
	for i, face := range box.Faces() {
		faceCenter := face.Corner.Add(face.U.Multiply(0.5)).Add(face.V.Multiply(0.5))
		if face.Normal.Dot(faceCenter.Subtract(box.Center)) <= 0 {
			t.Errorf("Face %d normal %v points inward", i, face.Normal)
		}
	}
}

func TestBox_HitFromOutside(t *testing.T) {
	box := NewAxisAlignedBox(core.Vec3{}, core.NewVec3(1, 1, 1), testSurface)
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))

	hit, ok := box.Hit(ray, 0.001, 100)
	if !ok {
		t.Fatal("Expected hit")
	}
	if math.Abs(hit.T-4) > 1e-9 {
		t.Errorf("Expected t=4, got %f", hit.T)
	}
	if !hit.FrontFace || hit.Normal.Distance(core.NewVec3(0, 0, 1)) > 1e-9 {
		t.Errorf("Expected front face with +Z normal, got front=%v normal=%v", hit.FrontFace, hit.Normal)
	}
}

func TestBox_HitFromInside(t *testing.T) {
	// Rooms are boxes seen from the inside
	box := NewAxisAlignedBox(core.Vec3{}, core.NewVec3(2, 2, 2), testSurface)
	ray := core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0))

	hit, ok := box.Hit(ray, 0.001, 100)
	if !ok {
		t.Fatal("Expected hit from inside")
	}
	if math.Abs(hit.T-2) > 1e-9 {
		t.Errorf("Expected t=2, got %f", hit.T)
	}
	if hit.FrontFace {
		t.Error("Inside hit should be a back face")
	}
	if hit.Normal.Distance(core.NewVec3(-1, 0, 0)) > 1e-9 {
		t.Errorf("Expected normal facing into the room, got %v", hit.Normal)
	}
}

func TestBox_Rotated(t *testing.T) {
	box := NewBox(core.Vec3{}, core.NewVec3(1, 1, 1), core.NewVec3(0, math.Pi/4, 0), testSurface)
	// Corner of the rotated box now sits on the X axis at sqrt(2)
	ray := core.NewRay(core.NewVec3(5, 0, 0), core.NewVec3(-1, 0, 0))
	hit, ok := box.Hit(ray, 0.001, 100)
	if !ok {
		t.Fatal("Expected hit")
	}
	if math.Abs(hit.Point.X-math.Sqrt2) > 1e-6 {
		t.Errorf("Expected hit at x=√2, got %v", hit.Point)
	}
	bbox := box.BoundingBox()
	if bbox.Max.X < math.Sqrt2-1e-6 {
		t.Errorf("Bounding box %v does not cover rotated corner", bbox)
	}
}
