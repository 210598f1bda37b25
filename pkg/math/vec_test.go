package math

import (
	"math"
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	if got := v.Length(); got != 5 {
		t.Errorf("Vec2.Length() = %v, want 5", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}
	l := v.Normalize().Length()
	if math.Abs(l-1) > 1e-12 {
		t.Errorf("Vec3.Normalize().Length() = %v, want 1", l)
	}
	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero vector normalized to %v", z)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Flat(t *testing.T) {
	v := Vec3{1, 7, -2}.Flat()
	if v != (Vec3{1, 0, -2}) {
		t.Errorf("Flat() = %v", v)
	}
}

func TestIntersect(t *testing.T) {
	// +X ray from origin and -Z ray from (10, 10) meet at (10, 0).
	tt, u, ok := Intersect(Vec2{0, 0}, Vec2{10, 10}, Vec2{1, 0}, Vec2{0, -1})
	if !ok {
		t.Fatal("expected intersection")
	}
	if tt != 10 || u != 10 {
		t.Errorf("Intersect() = (%v, %v), want (10, 10)", tt, u)
	}

	if _, _, ok := Intersect(Vec2{0, 0}, Vec2{0, 5}, Vec2{1, 0}, Vec2{-1, 0}); ok {
		t.Error("parallel lines must not intersect")
	}
}
