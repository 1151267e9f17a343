package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

func TestTriangle_Hit(t *testing.T) {
	// Triangle in the z=0 plane, normal +Z
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), testSurface)

	tests := []struct {
		name      string
		ray       core.Ray
		wantHit   bool
		wantT     float64
		wantFront bool
	}{
		{"front face", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1)), true, 1, true},
		{"back face", core.NewRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 1)), true, 2, false},
		{"outside edge", core.NewRay(core.NewVec3(0.75, 0.75, 1), core.NewVec3(0, 0, -1)), false, 0, false},
		{"parallel", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(1, 0, 0)), false, 0, false},
		{"behind origin", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1)), false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := tri.Hit(tt.ray, 0.001, 100)
			if ok != tt.wantHit {
				t.Fatalf("Expected hit=%v, got %v", tt.wantHit, ok)
			}
			if !ok {
				return
			}
			if math.Abs(hit.T-tt.wantT) > 1e-9 {
				t.Errorf("Expected t=%f, got %f", tt.wantT, hit.T)
			}
			if hit.FrontFace != tt.wantFront {
				t.Errorf("Expected front face %v, got %v", tt.wantFront, hit.FrontFace)
			}
			if hit.Normal.Dot(tt.ray.Direction) >= 0 {
				t.Errorf("Normal %v should face the incoming ray", hit.Normal)
			}
			if hit.Surface != testSurface {
				t.Errorf("Expected surface %v, got %v", testSurface, hit.Surface)
			}
		})
	}
}

func TestTriangle_NormalAndOwner(t *testing.T) {
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0), testSurface)
	if tri.Normal().Distance(core.NewVec3(0, 0, -1)) > 1e-12 {
		t.Errorf("Expected -Z normal from winding, got %v", tri.Normal())
	}
	if tri.Owner() != testSurface.Actor {
		t.Errorf("Expected owner %v, got %v", testSurface.Actor, tri.Owner())
	}
}
