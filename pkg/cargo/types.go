// Package cargo provides slot-based cargo containers: fixed-capacity 3D grids
// of slots that track which item occupies which slot, plus a composer that
// packs several containers of one carrier along an axis.
//
// The package is item-agnostic. Items are referenced by ItemID only; the host
// application maps ids to whatever spatial handle represents the item.
package cargo

import "math"

// ItemID is a stable, arena-assigned identifier for a placed item.
// The zero value never identifies a live item.
type ItemID uint64

// NoItem is returned by lookups that find nothing.
const NoItem ItemID = 0

// ItemType routes items of one kind to the matching container.
type ItemType string

// Vec3 is a position or offset in container-local space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// Div divides component-wise. Zero components of o leave v unchanged.
func (v Vec3) Div(o Vec3) Vec3 {
	out := v
	if o.X != 0 {
		out.X /= o.X
	}
	if o.Y != 0 {
		out.Y /= o.Y
	}
	if o.Z != 0 {
		out.Z /= o.Z
	}
	return out
}

// Lerp interpolates between v and o by t in [0,1].
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Length returns the euclidean length.
func (v Vec3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Quat is a rotation quaternion.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuat is the no-rotation quaternion.
var IdentityQuat = Quat{W: 1}

// IsZero reports whether q is the zero value, which callers treat as identity.
func (q Quat) IsZero() bool { return q == Quat{} }

// Normalized returns q scaled to unit length. The zero quaternion maps to identity.
func (q Quat) Normalized() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return IdentityQuat
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// Mul composes rotations: the result applies o first, then q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Conjugate returns the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat { return Quat{-q.X, -q.Y, -q.Z, q.W} }

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	if q.IsZero() {
		return v
	}
	p := q.Mul(Quat{X: v.X, Y: v.Y, Z: v.Z}).Mul(q.Conjugate())
	return Vec3{p.X, p.Y, p.Z}
}

// Nlerp interpolates rotations and renormalizes. Good enough for short arcs.
func (q Quat) Nlerp(o Quat, t float64) Quat {
	if q.X*o.X+q.Y*o.Y+q.Z*o.Z+q.W*o.W < 0 {
		o = Quat{-o.X, -o.Y, -o.Z, -o.W}
	}
	return Quat{
		X: q.X + (o.X-q.X)*t,
		Y: q.Y + (o.Y-q.Y)*t,
		Z: q.Z + (o.Z-q.Z)*t,
		W: q.W + (o.W-q.W)*t,
	}.Normalized()
}

// Pose is a local position and rotation.
type Pose struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
}

// Slot is one fixed addressable position of a container grid.
// Slots are static geometry and never change after construction.
type Slot struct {
	Index int  `json:"index"`
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Z     int  `json:"z"`
	Pose  Pose `json:"pose"`
}

// Axis selects one of the three local axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the lowercase axis letter.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Unit returns the unit vector along a.
func (a Axis) Unit() Vec3 {
	switch a {
	case AxisX:
		return Vec3{X: 1}
	case AxisY:
		return Vec3{Y: 1}
	default:
		return Vec3{Z: 1}
	}
}

// Component returns the component of v along a.
func (a Axis) Component(v Vec3) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// ParseAxis maps "x", "y" or "z" to an Axis. Anything else yields AxisZ, false.
func ParseAxis(s string) (Axis, bool) {
	switch s {
	case "x", "X":
		return AxisX, true
	case "y", "Y":
		return AxisY, true
	case "z", "Z":
		return AxisZ, true
	default:
		return AxisZ, false
	}
}
