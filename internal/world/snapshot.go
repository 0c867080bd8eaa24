package world

import (
	"github.com/gravitas-games/cargoyard/internal/zones"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// SlotItem is one occupied slot.
type SlotItem struct {
	Slot int          `json:"slot"`
	Item cargo.ItemID `json:"item"`
}

// ContainerSnapshot is a read-only copy of one bay.
type ContainerSnapshot struct {
	ItemType cargo.ItemType `json:"itemType"`
	Capacity int            `json:"capacity"`
	Occupied int            `json:"occupied"`
	Full     bool           `json:"full"`
	Offset   cargo.Vec3     `json:"offset"`
	Items    []SlotItem     `json:"items"`
}

// CarrierSnapshot describes a carrier and its stacked bays.
type CarrierSnapshot struct {
	ID         string              `json:"id"`
	Balance    int                 `json:"balance"`
	Containers []ContainerSnapshot `json:"containers"`
}

// StationSnapshot describes a station.
type StationSnapshot struct {
	ID        string            `json:"id"`
	Container ContainerSnapshot `json:"container"`
}

// Snapshot is a consistent copy of the world taken between ticks.
type Snapshot struct {
	Tick     uint64            `json:"tick"`
	Carriers []CarrierSnapshot `json:"carriers"`
	Stations []StationSnapshot `json:"stations"`
}

// Snapshot copies the current state.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{Tick: w.tick}
	for _, id := range w.carrierOrder {
		c := w.carriers[id]
		cs := CarrierSnapshot{ID: id, Balance: c.wallet}
		for _, b := range c.bays {
			cs.Containers = append(cs.Containers, snapshotBay(b))
		}
		snap.Carriers = append(snap.Carriers, cs)
	}
	for _, id := range w.stationOrder {
		snap.Stations = append(snap.Stations, StationSnapshot{ID: id, Container: snapshotBay(w.stations[id].bay)})
	}
	return snap
}

func snapshotBay(b zones.Bay) ContainerSnapshot {
	c := b.Container
	out := ContainerSnapshot{
		ItemType: c.ItemType(),
		Capacity: c.Capacity(),
		Occupied: c.OccupiedSlotsCount(),
		Full:     c.IsFull(),
		Items:    make([]SlotItem, 0, c.OccupiedSlotsCount()),
	}
	if b.View != nil {
		out.Offset = b.View.Root().LocalPosition()
	}
	for _, item := range c.Items() {
		if slot, ok := c.TryGetItemSlot(item); ok {
			out.Items = append(out.Items, SlotItem{Slot: slot.Index, Item: item})
		}
	}
	return out
}
