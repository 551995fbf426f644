package geom

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Epsilon is the tolerance used for distance ties and near-zero scalars.
const Epsilon = float32(1e-6)

// Transform is a world pose: position, orientation and per-axis scale.
// Rotation is a unit quaternion; the zero Transform is not valid, use Identity or At.
type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// Identity returns a transform at the origin with no rotation and unit scale.
func Identity() Transform {
	return Transform{
		Position: rl.NewVector3(0, 0, 0),
		Rotation: rl.QuaternionIdentity(),
		Scale:    rl.NewVector3(1, 1, 1),
	}
}

// At returns an unrotated, unit-scale transform at (x, y, z).
func At(x, y, z float32) Transform {
	t := Identity()
	t.Position = rl.NewVector3(x, y, z)
	return t
}

// WithEuler returns t rotated to the given pitch/yaw/roll in radians.
func (t Transform) WithEuler(pitch, yaw, roll float32) Transform {
	t.Rotation = rl.QuaternionFromEuler(pitch, yaw, roll)
	return t
}

// normalized fills in zero scale components and a zero quaternion so hand-built
// transforms behave like Identity on those fields.
func (t Transform) normalized() Transform {
	if t.Rotation == (rl.Quaternion{}) {
		t.Rotation = rl.QuaternionIdentity()
	}
	if t.Scale.X == 0 {
		t.Scale.X = 1
	}
	if t.Scale.Y == 0 {
		t.Scale.Y = 1
	}
	if t.Scale.Z == 0 {
		t.Scale.Z = 1
	}
	return t
}

// Compose places child (expressed in parent's frame) into the parent's world frame.
// Parent scale is ignored: controllers are rigid and held entities keep their own scale.
func Compose(parent, child Transform) Transform {
	parent = parent.normalized()
	child = child.normalized()
	return Transform{
		Position: rl.Vector3Add(parent.Position, rl.Vector3RotateByQuaternion(child.Position, parent.Rotation)),
		Rotation: rl.QuaternionNormalize(rl.QuaternionMultiply(parent.Rotation, child.Rotation)),
		Scale:    child.Scale,
	}
}

// Relative expresses world pose child in parent's frame. Compose(parent, Relative(parent, child))
// reproduces child.
func Relative(parent, child Transform) Transform {
	parent = parent.normalized()
	child = child.normalized()
	inv := rl.QuaternionInvert(parent.Rotation)
	return Transform{
		Position: rl.Vector3RotateByQuaternion(rl.Vector3Subtract(child.Position, parent.Position), inv),
		Rotation: rl.QuaternionNormalize(rl.QuaternionMultiply(inv, child.Rotation)),
		Scale:    child.Scale,
	}
}

// Distance is the Euclidean distance between two points.
func Distance(a, b rl.Vector3) float32 {
	return rl.Vector3Distance(a, b)
}

// NearlyEqual reports whether a and b differ by at most Epsilon.
func NearlyEqual(a, b float32) bool {
	return math32.Abs(a-b) <= Epsilon
}

// Component returns the axis-th component (0=X, 1=Y, 2=Z) of v.
func Component(v rl.Vector3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// SetComponent returns v with its axis-th component replaced.
func SetComponent(v rl.Vector3, axis int, value float32) rl.Vector3 {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// LongAxis returns the index of the largest component of size. Ties prefer X, then Y.
func LongAxis(size rl.Vector3) int {
	axis := 0
	best := math32.Abs(size.X)
	if y := math32.Abs(size.Y); y > best {
		axis, best = 1, y
	}
	if z := math32.Abs(size.Z); z > best {
		axis = 2
	}
	return axis
}

// Axis returns the local unit vector for axis rotated into world space by t's rotation.
func (t Transform) Axis(axis int) rl.Vector3 {
	t = t.normalized()
	unit := SetComponent(rl.NewVector3(0, 0, 0), axis, 1)
	return rl.Vector3RotateByQuaternion(unit, t.Rotation)
}

// Extent returns the world-space size of a box of the given base size under t's scale.
func (t Transform) Extent(size rl.Vector3) rl.Vector3 {
	t = t.normalized()
	return rl.Vector3Multiply(size, t.Scale)
}
