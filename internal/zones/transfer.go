package zones

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Collector moves items from a station's bottom layer into the carrier bay
// of the same type. The station pile settles after every pick.
type Collector struct {
	loop
	station Station
	carrier Carrier
}

// NewCollector builds a stopped collector.
func NewCollector(name string, station Station, carrier Carrier, interval, moveTime time.Duration, deps Deps) *Collector {
	z := &Collector{loop: newLoop(name, interval, moveTime, deps), station: station, carrier: carrier}
	z.step = z.collect
	return z
}

func (z *Collector) collect() bool {
	src := z.station.Bay()
	dst, ok := z.carrier.BayFor(src.Container.ItemType())
	if !ok {
		return false
	}
	if z.checkFull(dst.Owner, dst.Container) {
		return false
	}
	item, ok := src.Container.TryReleaseBottomItem(true)
	if !ok {
		return false
	}
	src.View.Detach(item, z.deps.Scene)
	src.View.AnimateFall(z.moveTime)
	slot := dst.Container.OccupyNextSlot(item)
	dst.View.MoveItemToSlot(item, slot, z.moveTime)
	z.log.WithFields(logrus.Fields{"item": item, "slot": slot.Index}).Debug("collected")
	return true
}

// Unloader moves the carrier's top item of the station's type into the station.
type Unloader struct {
	loop
	station Station
	carrier Carrier
}

// NewUnloader builds a stopped unloader.
func NewUnloader(name string, station Station, carrier Carrier, interval, moveTime time.Duration, deps Deps) *Unloader {
	z := &Unloader{loop: newLoop(name, interval, moveTime, deps), station: station, carrier: carrier}
	z.step = z.unload
	return z
}

func (z *Unloader) unload() bool {
	dst := z.station.Bay()
	if z.checkFull(dst.Owner, dst.Container) {
		return false
	}
	src, ok := z.carrier.BayFor(dst.Container.ItemType())
	if !ok {
		return false
	}
	item, _, ok := src.Container.TryReleaseTopItem()
	if !ok {
		return false
	}
	src.View.Detach(item, z.deps.Scene)
	slot := dst.Container.OccupyNextSlot(item)
	dst.View.MoveItemToSlot(item, slot, z.moveTime)
	z.log.WithFields(logrus.Fields{"item": item, "slot": slot.Index}).Debug("unloaded")
	return true
}
