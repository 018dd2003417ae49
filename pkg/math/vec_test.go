package math

import (
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{3, 4, 5}
	got := a.Add(b)
	want := Vec3{4, 6, 8}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{3, 4, 0}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec3.Length() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 4, 12}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestBoundingSphere(t *testing.T) {
	tests := []struct {
		name       string
		points     []Vec3
		wantCenter Vec3
		wantRadius float32
		wantOK     bool
	}{
		{"empty", nil, Vec3{}, 0, false},
		{"single point", []Vec3{{1, 2, 3}}, Vec3{1, 2, 3}, 0, true},
		{"axis pair", []Vec3{{-2, 0, 0}, {2, 0, 0}}, Vec3{0, 0, 0}, 2, true},
		{"box", []Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}}, Vec3{1, 1, 0}, float32(1.4142135), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center, radius, ok := BoundingSphere(tt.points)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if center != tt.wantCenter {
				t.Errorf("center = %v, want %v", center, tt.wantCenter)
			}
			if abs(radius-tt.wantRadius) > 1e-5 {
				t.Errorf("radius = %v, want %v", radius, tt.wantRadius)
			}
		})
	}
}
