// Package math provides the bounding volume types used by meshes.
package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 and Vec4 are the vector types used across the mesh model.
type (
	Vec3 = mgl32.Vec3
	Vec4 = mgl32.Vec4
)

// AABB is an axis-aligned bounding box. The zero value is a null box that
// contains nothing.
type AABB struct {
	Min, Max Vec3
	finite   bool
}

// NewAABB returns a finite box spanning min..max.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max, finite: true}
}

// IsNull reports whether the box has never been given an extent.
func (b AABB) IsNull() bool {
	return !b.finite
}

// Merge grows the box to contain p.
func (b *AABB) Merge(p Vec3) {
	if !b.finite {
		*b = NewAABB(p, p)
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis.
func (b AABB) Size() Vec3 {
	if !b.finite {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Radius returns the radius of the sphere about the origin that encloses
// the box, the convention mesh bounding radii use.
func (b AABB) Radius() float32 {
	if !b.finite {
		return 0
	}
	return math32.Max(Length(b.Min), Length(b.Max))
}

// Length returns the magnitude of v in float32 precision.
func Length(v Vec3) float32 {
	return math32.Sqrt(v.Dot(v))
}
