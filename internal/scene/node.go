// Package scene is a minimal transform hierarchy used as the spatial handle
// for items, slots and container roots.
package scene

import "github.com/gravitas-games/cargoyard/pkg/cargo"

// Node is a named transform with an optional parent.
type Node struct {
	Name string

	parent   *Node
	children []*Node

	position cargo.Vec3
	rotation cargo.Quat
	scale    cargo.Vec3
}

// NewNode returns an unparented node at the origin with unit scale.
func NewNode(name string) *Node {
	return &Node{Name: name, rotation: cargo.IdentityQuat, scale: cargo.Vec3{X: 1, Y: 1, Z: 1}}
}

func (n *Node) LocalPosition() cargo.Vec3     { return n.position }
func (n *Node) SetLocalPosition(p cargo.Vec3) { n.position = p }
func (n *Node) LocalRotation() cargo.Quat     { return n.rotation }
func (n *Node) SetLocalRotation(q cargo.Quat) { n.rotation = q.Normalized() }
func (n *Node) LocalScale() cargo.Vec3        { return n.scale }
func (n *Node) SetLocalScale(s cargo.Vec3)    { n.scale = s }
func (n *Node) Parent() *Node                 { return n.parent }
func (n *Node) LocalPose() cargo.Pose         { return cargo.Pose{Position: n.position, Rotation: n.rotation} }
func (n *Node) SetLocalPose(p cargo.Pose) {
	n.position = p.Position
	n.SetLocalRotation(p.Rotation)
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// WorldPosition resolves the position through every ancestor.
func (n *Node) WorldPosition() cargo.Vec3 {
	if n.parent == nil {
		return n.position
	}
	p := n.parent
	return p.WorldPosition().Add(p.WorldRotation().Rotate(n.position.Mul(p.worldScale())))
}

// WorldRotation resolves the rotation through every ancestor.
func (n *Node) WorldRotation() cargo.Quat {
	if n.parent == nil {
		return n.rotation
	}
	return n.parent.WorldRotation().Mul(n.rotation)
}

func (n *Node) worldScale() cargo.Vec3 {
	if n.parent == nil {
		return n.scale
	}
	return n.parent.worldScale().Mul(n.scale)
}

// SetParent moves n under parent. With keepWorld the local transform is
// rewritten so the world position and rotation stay put. A nil parent
// detaches n. Cycles are refused.
func (n *Node) SetParent(parent *Node, keepWorld bool) bool {
	for p := parent; p != nil; p = p.parent {
		if p == n {
			return false
		}
	}
	worldPos, worldRot := n.WorldPosition(), n.WorldRotation()
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	if !keepWorld {
		return true
	}
	if parent == nil {
		n.position, n.rotation = worldPos, worldRot
		return true
	}
	inv := parent.WorldRotation().Conjugate()
	n.position = inv.Rotate(worldPos.Sub(parent.WorldPosition())).Div(parent.worldScale())
	n.rotation = inv.Mul(worldRot).Normalized()
	return true
}

func (n *Node) removeChild(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}
