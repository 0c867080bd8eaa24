package world

import (
	"github.com/gravitas-games/cargoyard/internal/scene"
	"github.com/gravitas-games/cargoyard/internal/zones"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// Carrier is a character hauling one container per item type. Its bays are
// stacked by a composer.
type Carrier struct {
	id       string
	root     *scene.Node
	composer *cargo.Composer
	bays     []zones.Bay
	wallet   int
}

func (c *Carrier) ID() string                { return c.id }
func (c *Carrier) Root() *scene.Node         { return c.root }
func (c *Carrier) Composer() *cargo.Composer { return c.composer }
func (c *Carrier) Balance() int              { return c.wallet }

// Bays returns the bays in stack order.
func (c *Carrier) Bays() []zones.Bay {
	out := make([]zones.Bay, len(c.bays))
	copy(out, c.bays)
	return out
}

// BayFor routes an item type to its bay.
func (c *Carrier) BayFor(itemType cargo.ItemType) (zones.Bay, bool) {
	box, ok := c.composer.ContainerFor(itemType)
	if !ok {
		return zones.Bay{}, false
	}
	for _, b := range c.bays {
		if b.Container == box {
			return b, true
		}
	}
	return zones.Bay{}, false
}

// Credit adds amount to the wallet and returns the new balance.
func (c *Carrier) Credit(amount int) int {
	c.wallet += amount
	return c.wallet
}

// Station is a fixed container of one item type.
type Station struct {
	id  string
	bay zones.Bay
}

func (s *Station) ID() string     { return s.id }
func (s *Station) Bay() zones.Bay { return s.bay }
