package geom

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Bounds returns the world axis-aligned box that encloses a box of the given base size posed
// by t. A rotated box gets the smallest aligned box around its corners.
func Bounds(t Transform, size rl.Vector3) rl.BoundingBox {
	ext := t.Extent(size)
	var half rl.Vector3
	for axis := range 3 {
		v := rl.Vector3Scale(t.Axis(axis), Component(ext, axis)/2)
		half.X += math32.Abs(v.X)
		half.Y += math32.Abs(v.Y)
		half.Z += math32.Abs(v.Z)
	}
	return rl.NewBoundingBox(
		rl.Vector3Subtract(t.Position, half),
		rl.Vector3Add(t.Position, half),
	)
}

// Penetration returns the overlap amount and axis index (0=X, 1=Y, 2=Z) of the minimum
// penetration between two boxes. If they do not overlap it returns (0, -1).
func Penetration(a, b rl.BoundingBox) (depth float32, axis int) {
	overlapX := min(a.Max.X, b.Max.X) - max(a.Min.X, b.Min.X)
	overlapY := min(a.Max.Y, b.Max.Y) - max(a.Min.Y, b.Min.Y)
	overlapZ := min(a.Max.Z, b.Max.Z) - max(a.Min.Z, b.Min.Z)
	if overlapX <= 0 || overlapY <= 0 || overlapZ <= 0 {
		return 0, -1
	}
	depth = overlapX
	axis = 0
	if overlapY < depth {
		depth = overlapY
		axis = 1
	}
	if overlapZ < depth {
		depth = overlapZ
		axis = 2
	}
	return depth, axis
}

// Overlaps reports whether two boxes intersect with positive volume.
func Overlaps(a, b rl.BoundingBox) bool {
	_, axis := Penetration(a, b)
	return axis >= 0
}
