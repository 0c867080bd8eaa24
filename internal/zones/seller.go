package zones

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/events"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// Seller takes the top item of a carrier bay each run, credits the carrier
// with the catalog price and destroys the item. An empty item type sells
// from every bay in order.
type Seller struct {
	loop
	carrier  Carrier
	itemType cargo.ItemType
}

// NewSeller builds a stopped seller.
func NewSeller(name string, carrier Carrier, itemType cargo.ItemType, interval time.Duration, deps Deps) *Seller {
	z := &Seller{loop: newLoop(name, interval, 0, deps), carrier: carrier, itemType: itemType}
	z.step = z.sell
	return z
}

func (z *Seller) sell() bool {
	for _, bay := range z.carrier.Bays() {
		t := bay.Container.ItemType()
		if z.itemType != "" && t != z.itemType {
			continue
		}
		item, slot, ok := bay.Container.TryReleaseTopItem()
		if !ok {
			continue
		}
		price, err := z.deps.Catalog.PriceOf(t)
		if err != nil {
			z.log.WithError(err).Warn("selling unpriced item")
		}
		balance := z.carrier.Credit(price)
		bay.View.Detach(item, nil)
		z.deps.Arena.Despawn(item)
		z.deps.Bus.Publish(events.Event{
			Type:      events.ItemSold,
			Owner:     bay.Owner,
			ItemType:  t,
			Item:      item,
			Slot:      slot.Index,
			Amount:    price,
			Zone:      z.name,
			Timestamp: z.deps.Scheduler.Now(),
		})
		z.log.WithFields(logrus.Fields{"item_type": t, "price": price, "balance": balance}).Debug("sold")
		return true
	}
	return false
}
