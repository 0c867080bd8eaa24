package cargo

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid is returned for grids with a non-positive dimension.
var ErrInvalidGrid = errors.New("cargo: invalid grid")

// GridSpec describes the slot layout of a container.
//
// Slots are addressed by index = y*(CountX*CountZ) + x*CountZ + z, so the slot
// directly below index i is always i - LayerSize().
type GridSpec struct {
	CountX    int     `yaml:"count_x" json:"countX"`
	CountY    int     `yaml:"count_y" json:"countY"`
	CountZ    int     `yaml:"count_z" json:"countZ"`
	IntervalX float64 `yaml:"interval_x" json:"intervalX"`
	IntervalY float64 `yaml:"interval_y" json:"intervalY"`
	IntervalZ float64 `yaml:"interval_z" json:"intervalZ"`
	// Rotation is shared by every slot. The zero value means identity.
	Rotation Quat `yaml:"rotation" json:"rotation"`
}

// Validate checks that every count is positive.
func (g GridSpec) Validate() error {
	if g.CountX <= 0 || g.CountY <= 0 || g.CountZ <= 0 {
		return fmt.Errorf("%w: counts must be positive, got %dx%dx%d", ErrInvalidGrid, g.CountX, g.CountY, g.CountZ)
	}
	return nil
}

// Capacity is the total number of slots.
func (g GridSpec) Capacity() int { return g.CountX * g.CountY * g.CountZ }

// LayerSize is the number of slots sharing one y coordinate.
func (g GridSpec) LayerSize() int { return g.CountX * g.CountZ }

// Index maps grid coordinates to a slot index.
func (g GridSpec) Index(x, y, z int) int {
	return y*g.LayerSize() + x*g.CountZ + z
}

// Coord inverts Index.
func (g GridSpec) Coord(index int) (x, y, z int) {
	layer := g.LayerSize()
	y = index / layer
	rem := index % layer
	return rem / g.CountZ, y, rem % g.CountZ
}

// Extent returns the full size of the grid along each axis.
func (g GridSpec) Extent() Vec3 {
	return Vec3{
		X: float64(g.CountX) * g.IntervalX,
		Y: float64(g.CountY) * g.IntervalY,
		Z: float64(g.CountZ) * g.IntervalZ,
	}
}

// SlotPose returns the local pose of the slot at grid coordinates.
func (g GridSpec) SlotPose(x, y, z int) Pose {
	rot := g.Rotation
	if rot.IsZero() {
		rot = IdentityQuat
	}
	return Pose{
		Position: Vec3{X: float64(x) * g.IntervalX, Y: float64(y) * g.IntervalY, Z: float64(z) * g.IntervalZ},
		Rotation: rot,
	}
}

// Slots builds the ordered slot sequence. The result is indexed by Slot.Index.
func (g GridSpec) Slots() ([]Slot, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	slots := make([]Slot, g.Capacity())
	for y := 0; y < g.CountY; y++ {
		for x := 0; x < g.CountX; x++ {
			for z := 0; z < g.CountZ; z++ {
				i := g.Index(x, y, z)
				slots[i] = Slot{Index: i, X: x, Y: y, Z: z, Pose: g.SlotPose(x, y, z)}
			}
		}
	}
	return slots, nil
}
