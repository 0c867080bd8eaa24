// Package view binds cargo containers to scene nodes: it owns the item
// arena that maps ItemIDs to nodes and drives item moves through the
// animator.
package view

import (
	"fmt"

	"github.com/gravitas-games/cargoyard/internal/scene"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

type arenaEntry struct {
	node     *scene.Node
	itemType cargo.ItemType
}

// Arena allocates stable item ids and keeps the node for each live item.
type Arena struct {
	next  cargo.ItemID
	items map[cargo.ItemID]arenaEntry
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{items: make(map[cargo.ItemID]arenaEntry)}
}

// Spawn creates an item of itemType with a fresh node under parent.
func (a *Arena) Spawn(itemType cargo.ItemType, parent *scene.Node) cargo.ItemID {
	a.next++
	id := a.next
	n := scene.NewNode(fmt.Sprintf("%s#%d", itemType, id))
	if parent != nil {
		n.SetParent(parent, false)
	}
	a.items[id] = arenaEntry{node: n, itemType: itemType}
	return id
}

// Node returns the node of a live item.
func (a *Arena) Node(id cargo.ItemID) (*scene.Node, bool) {
	e, ok := a.items[id]
	return e.node, ok
}

// Type returns the item type of a live item.
func (a *Arena) Type(id cargo.ItemID) (cargo.ItemType, bool) {
	e, ok := a.items[id]
	return e.itemType, ok
}

// Despawn removes the item and detaches its node.
func (a *Arena) Despawn(id cargo.ItemID) bool {
	e, ok := a.items[id]
	if !ok {
		return false
	}
	e.node.SetParent(nil, false)
	delete(a.items, id)
	return true
}

// Len returns the number of live items.
func (a *Arena) Len() int { return len(a.items) }
