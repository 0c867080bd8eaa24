package zones

import (
	"time"

	"github.com/gravitas-games/cargoyard/internal/events"
)

// Producer spawns one item per run into a station until it is full.
type Producer struct {
	loop
	station Station
}

// NewProducer builds a stopped producer.
func NewProducer(name string, station Station, interval time.Duration, deps Deps) *Producer {
	p := &Producer{loop: newLoop(name, interval, 0, deps), station: station}
	p.step = p.produce
	return p
}

func (p *Producer) produce() bool {
	bay := p.station.Bay()
	c := bay.Container
	if p.checkFull(bay.Owner, c) {
		return false
	}
	item := p.deps.Arena.Spawn(c.ItemType(), bay.View.Root())
	slot := c.OccupyNextSlot(item)
	bay.View.Place(item, slot)
	p.deps.Bus.Publish(events.Event{
		Type:      events.ItemSpawned,
		Owner:     bay.Owner,
		ItemType:  c.ItemType(),
		Item:      item,
		Slot:      slot.Index,
		Zone:      p.name,
		Timestamp: p.deps.Scheduler.Now(),
	})
	return true
}
