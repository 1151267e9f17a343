package core

import (
	"math"
	"testing"
)

func TestVec3_Rotate(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		rotation Vec3
		expected Vec3
	}{
		{
			name:     "No rotation",
			vector:   NewVec3(1, 0, 0),
			rotation: NewVec3(0, 0, 0),
			expected: NewVec3(1, 0, 0),
		},
		{
			name:     "90 degree rotation around Z axis",
			vector:   NewVec3(1, 0, 0),
			rotation: NewVec3(0, 0, math.Pi/2),
			expected: NewVec3(0, 1, 0),
		},
		{
			name:     "90 degree rotation around Y axis",
			vector:   NewVec3(1, 0, 0),
			rotation: NewVec3(0, math.Pi/2, 0),
			expected: NewVec3(0, 0, -1),
		},
		{
			name:     "90 degree rotation around X axis",
			vector:   NewVec3(0, 1, 0),
			rotation: NewVec3(math.Pi/2, 0, 0),
			expected: NewVec3(0, 0, 1),
		},
		{
			name:     "180 degree rotation around Y axis",
			vector:   NewVec3(1, 0, 0),
			rotation: NewVec3(0, math.Pi, 0),
			expected: NewVec3(-1, 0, 0),
		},
		{
			name:     "Combined rotations",
			vector:   NewVec3(1, 0, 0),
			rotation: NewVec3(0, math.Pi/2, math.Pi/2), // 90° Y then 90° Z
			expected: NewVec3(0, 0, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Rotate(tt.rotation)

			const tolerance = 1e-9
			if result.Subtract(tt.expected).Length() > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_Distance(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 6, 3)
	if d := a.Distance(b); math.Abs(d-5) > 1e-12 {
		t.Errorf("Expected distance 5, got %f", d)
	}
	if d := a.Distance(a); d != 0 {
		t.Errorf("Expected zero distance to self, got %f", d)
	}
}

func TestVec3_NormalizeZero(t *testing.T) {
	n := Vec3{}.Normalize()
	if n != (Vec3{}) {
		t.Errorf("Expected zero vector to normalize to zero, got %v", n)
	}
	if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
		t.Error("Normalize produced NaN")
	}
}

func TestVec3_IsNearlyZero(t *testing.T) {
	tests := []struct {
		v        Vec3
		expected bool
	}{
		{Vec3{}, true},
		{NewVec3(1e-9, -1e-9, 0), true},
		{NewVec3(0, 0, 0.1), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsNearlyZero(1e-6); got != tt.expected {
			t.Errorf("IsNearlyZero(%v) = %v, expected %v", tt.v, got, tt.expected)
		}
	}
}

func TestVec3_CrossAndComponent(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	if z := x.Cross(y); z != NewVec3(0, 0, 1) {
		t.Errorf("Expected +Z, got %v", z)
	}
	v := NewVec3(3, 4, 5)
	for axis, expected := range []float64{3, 4, 5} {
		if got := v.Component(axis); got != expected {
			t.Errorf("Component(%d) = %f, expected %f", axis, got, expected)
		}
	}
}
