package scene

import (
	"math"
	"testing"

	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

func near(a, b cargo.Vec3) bool {
	return a.Sub(b).Length() < 1e-9
}

func TestWorldPositionThroughParents(t *testing.T) {
	root := NewNode("root")
	root.SetLocalPosition(cargo.Vec3{X: 10})
	child := NewNode("child")
	child.SetParent(root, false)
	child.SetLocalPosition(cargo.Vec3{Y: 2})
	if got := child.WorldPosition(); !near(got, cargo.Vec3{X: 10, Y: 2}) {
		t.Fatalf("unexpected world position %+v", got)
	}

	// quarter turn around Y maps +Z to +X
	s := math.Sqrt(0.5)
	root.SetLocalRotation(cargo.Quat{Y: s, W: s})
	child.SetLocalPosition(cargo.Vec3{Z: 1})
	if got := child.WorldPosition(); !near(got, cargo.Vec3{X: 11}) {
		t.Fatalf("unexpected rotated world position %+v", got)
	}
}

func TestSetParentKeepsWorld(t *testing.T) {
	a := NewNode("a")
	a.SetLocalPosition(cargo.Vec3{X: 1, Y: 1})
	b := NewNode("b")
	b.SetLocalPosition(cargo.Vec3{Z: 5})
	b.SetLocalScale(cargo.Vec3{X: 2, Y: 2, Z: 2})
	item := NewNode("item")
	item.SetParent(a, false)
	item.SetLocalPosition(cargo.Vec3{X: 3})

	before := item.WorldPosition()
	if !item.SetParent(b, true) {
		t.Fatalf("expected reparent to succeed")
	}
	if after := item.WorldPosition(); !near(before, after) {
		t.Fatalf("world position moved from %+v to %+v", before, after)
	}
	if len(a.Children()) != 0 || len(b.Children()) != 1 {
		t.Fatalf("child lists not updated")
	}
	if b.SetParent(item, false) {
		t.Fatalf("expected cycle to be refused")
	}
}
