package view

import (
	"fmt"
	"time"

	"github.com/gravitas-games/cargoyard/internal/motion"
	"github.com/gravitas-games/cargoyard/internal/scene"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// View presents one container: a root node, one node per slot and the
// animation jobs moving items into those slots. At most one job per item is
// active.
type View struct {
	container cargo.Container
	arena     *Arena
	animator  *motion.Animator

	root  *scene.Node
	slots []*scene.Node
	jobs  map[cargo.ItemID]motion.JobID
}

// New builds slot nodes for c under a fresh root attached to parent.
func New(c cargo.Container, arena *Arena, animator *motion.Animator, parent *scene.Node, name string) *View {
	root := scene.NewNode(name)
	if parent != nil {
		root.SetParent(parent, false)
	}
	v := &View{
		container: c,
		arena:     arena,
		animator:  animator,
		root:      root,
		jobs:      make(map[cargo.ItemID]motion.JobID),
	}
	for _, s := range c.Slots() {
		n := scene.NewNode(fmt.Sprintf("%s/slot-%d", name, s.Index))
		n.SetParent(root, false)
		n.SetLocalPose(s.Pose)
		v.slots = append(v.slots, n)
	}
	return v
}

func (v *View) Container() cargo.Container { return v.container }
func (v *View) Root() *scene.Node          { return v.root }

// SlotNode returns the node for a slot index.
func (v *View) SlotNode(index int) (*scene.Node, bool) {
	if index < 0 || index >= len(v.slots) {
		return nil, false
	}
	return v.slots[index], true
}

// Place snaps item into slot without animation.
func (v *View) Place(item cargo.ItemID, slot cargo.Slot) bool {
	n, ok := v.arena.Node(item)
	sn, sok := v.SlotNode(slot.Index)
	if !ok || !sok {
		return false
	}
	v.cancel(item)
	n.SetParent(sn, false)
	n.SetLocalPose(cargo.Pose{Rotation: cargo.IdentityQuat})
	return true
}

// MoveItemToSlot reparents item under the slot node, keeping its world
// position, and animates it onto the slot. Any earlier job for the same item
// is cancelled; other items are unaffected.
func (v *View) MoveItemToSlot(item cargo.ItemID, slot cargo.Slot, d time.Duration) bool {
	n, ok := v.arena.Node(item)
	sn, sok := v.SlotNode(slot.Index)
	if !ok || !sok {
		return false
	}
	v.cancel(item)
	n.SetParent(sn, true)
	var id motion.JobID
	id = v.animator.Animate(n, cargo.Pose{Rotation: cargo.IdentityQuat}, d, func() {
		if v.jobs[item] == id {
			delete(v.jobs, item)
		}
	})
	v.jobs[item] = id
	return true
}

// AnimateFall cancels every in-flight job of this view and moves each
// tracked item to its current slot.
func (v *View) AnimateFall(d time.Duration) int {
	for item := range v.jobs {
		v.cancel(item)
	}
	moved := 0
	for _, item := range v.container.Items() {
		slot, ok := v.container.TryGetItemSlot(item)
		if !ok {
			continue
		}
		if v.MoveItemToSlot(item, slot, d) {
			moved++
		}
	}
	return moved
}

// Detach forgets item: its job is cancelled and its node is moved to parent
// keeping its world pose.
func (v *View) Detach(item cargo.ItemID, parent *scene.Node) {
	v.cancel(item)
	if n, ok := v.arena.Node(item); ok {
		n.SetParent(parent, true)
	}
}

// Moving reports whether item has an active job in this view.
func (v *View) Moving(item cargo.ItemID) bool {
	id, ok := v.jobs[item]
	return ok && v.animator.Active(id)
}

func (v *View) cancel(item cargo.ItemID) {
	if id, ok := v.jobs[item]; ok {
		v.animator.Cancel(id)
		delete(v.jobs, item)
	}
}
