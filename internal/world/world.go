// Package world hosts the cargo simulation: carriers, stations, the zones
// that move items between them and the cooperative loop that drives it all.
package world

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/catalog"
	"github.com/gravitas-games/cargoyard/internal/config"
	"github.com/gravitas-games/cargoyard/internal/events"
	"github.com/gravitas-games/cargoyard/internal/motion"
	"github.com/gravitas-games/cargoyard/internal/scene"
	"github.com/gravitas-games/cargoyard/internal/schedule"
	"github.com/gravitas-games/cargoyard/internal/view"
	"github.com/gravitas-games/cargoyard/internal/zones"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

var (
	ErrUnknownCarrier = errors.New("world: unknown carrier")
	ErrUnknownStation = errors.New("world: unknown station")
)

// World owns every simulated object. Tick and the read helpers lock the
// world so the server may observe it from other goroutines; everything
// inside a tick runs on the caller's goroutine.
type World struct {
	mu sync.Mutex

	log      logrus.FieldLogger
	bus      events.Bus
	catalog  *catalog.Catalog
	sched    *schedule.Scheduler
	animator *motion.Animator
	arena    *view.Arena
	scene    *scene.Node

	carriers     map[string]*Carrier
	carrierOrder []string
	stations     map[string]*Station
	stationOrder []string
	zones        []zones.Zone

	now  time.Time
	tick uint64
}

// New builds a world from configuration. Zones are created stopped.
func New(cfg *config.Config, bus events.Bus, log logrus.FieldLogger, start time.Time) (*World, error) {
	if bus == nil {
		bus = events.NullBus{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	cat, err := catalog.New(cfg.Catalog...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	w := &World{
		log:      log,
		bus:      bus,
		catalog:  cat,
		sched:    schedule.New(start),
		animator: motion.NewAnimator(),
		arena:    view.NewArena(),
		scene:    scene.NewNode("world"),
		carriers: make(map[string]*Carrier),
		stations: make(map[string]*Station),
		now:      start,
	}
	for _, sc := range cfg.Stations {
		if _, err := w.addStation(sc); err != nil {
			return nil, err
		}
	}
	for _, cc := range cfg.Carriers {
		if _, err := w.addCarrier(cc); err != nil {
			return nil, err
		}
	}
	for _, zc := range cfg.Zones {
		z, err := w.buildZone(zc)
		if err != nil {
			return nil, err
		}
		w.zones = append(w.zones, z)
	}
	log.WithFields(logrus.Fields{
		"carriers": len(w.carriers),
		"stations": len(w.stations),
		"zones":    len(w.zones),
	}).Info("world built")
	return w, nil
}

func (w *World) addStation(sc config.StationConfig) (*Station, error) {
	box, err := cargo.NewGridContainer(sc.ItemType, sc.Grid)
	if err != nil {
		return nil, fmt.Errorf("station %q: %w", sc.ID, err)
	}
	v := view.New(box, w.arena, w.animator, w.scene, "station/"+sc.ID)
	v.Root().SetLocalPosition(sc.Position)
	s := &Station{id: sc.ID, bay: zones.Bay{Owner: sc.ID, Container: box, View: v}}
	w.relay(sc.ID, box)
	w.stations[sc.ID] = s
	w.stationOrder = append(w.stationOrder, sc.ID)
	return s, nil
}

func (w *World) addCarrier(cc config.CarrierConfig) (*Carrier, error) {
	id := cc.ID
	if id == "" {
		id = uuid.NewString()
	}
	axis, _ := cargo.ParseAxis(cc.Axis)
	root := scene.NewNode("carrier/" + id)
	root.SetParent(w.scene, false)
	root.SetLocalPosition(cc.Position)
	c := &Carrier{id: id, root: root, composer: cargo.NewComposer(axis, cc.Spacing)}
	for _, bc := range cc.Containers {
		box, err := cargo.NewGridContainer(bc.ItemType, bc.Grid)
		if err != nil {
			return nil, fmt.Errorf("carrier %q: %w", id, err)
		}
		v := view.New(box, w.arena, w.animator, root, fmt.Sprintf("carrier/%s/%s", id, bc.ItemType))
		c.bays = append(c.bays, zones.Bay{Owner: id, Container: box, View: v})
		w.relay(id, box)
	}
	// Layout handlers move each bay root along the carrier's back.
	c.composer.OnLayout(func(i int, _ cargo.Container, offset cargo.Vec3) {
		c.bays[i].View.Root().SetLocalPosition(offset)
	})
	for i, bc := range cc.Containers {
		c.composer.Attach(c.bays[i].Container, bc.HalfDepth)
	}
	w.carriers[id] = c
	w.carrierOrder = append(w.carrierOrder, id)
	return c, nil
}

// relay republishes container occupancy on the bus.
func (w *World) relay(owner string, box cargo.Container) {
	publish := func(t events.Type) cargo.SlotHandler {
		return func(slot cargo.Slot, item cargo.ItemID) {
			w.bus.Publish(events.Event{
				Type:      t,
				Owner:     owner,
				ItemType:  box.ItemType(),
				Item:      item,
				Slot:      slot.Index,
				Timestamp: w.sched.Now(),
			})
		}
	}
	box.OnOccupy(publish(events.ItemOccupied))
	box.OnRelease(publish(events.ItemReleased))
}

func (w *World) buildZone(zc config.ZoneConfig) (zones.Zone, error) {
	deps := zones.Deps{
		Scheduler: w.sched,
		Bus:       w.bus,
		Arena:     w.arena,
		Catalog:   w.catalog,
		Scene:     w.scene,
		Log:       w.log,
	}
	station := func() (*Station, error) {
		s, ok := w.stations[zc.Station]
		if !ok {
			return nil, fmt.Errorf("zone %q: %w: %s", zc.Name, ErrUnknownStation, zc.Station)
		}
		return s, nil
	}
	carrier := func() (*Carrier, error) {
		c, ok := w.carriers[zc.Carrier]
		if !ok {
			return nil, fmt.Errorf("zone %q: %w: %s", zc.Name, ErrUnknownCarrier, zc.Carrier)
		}
		return c, nil
	}
	switch zc.Kind {
	case config.ZoneProducer:
		s, err := station()
		if err != nil {
			return nil, err
		}
		return zones.NewProducer(zc.Name, s, zc.Interval, deps), nil
	case config.ZoneCollector, config.ZoneUnloader:
		s, err := station()
		if err != nil {
			return nil, err
		}
		c, err := carrier()
		if err != nil {
			return nil, err
		}
		if zc.Kind == config.ZoneCollector {
			return zones.NewCollector(zc.Name, s, c, zc.Interval, zc.MoveDuration, deps), nil
		}
		return zones.NewUnloader(zc.Name, s, c, zc.Interval, zc.MoveDuration, deps), nil
	case config.ZoneSeller:
		c, err := carrier()
		if err != nil {
			return nil, err
		}
		return zones.NewSeller(zc.Name, c, zc.ItemType, zc.Interval, deps), nil
	default:
		return nil, fmt.Errorf("zone %q: unknown kind %q", zc.Name, zc.Kind)
	}
}

// Start starts every zone.
func (w *World) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, z := range w.zones {
		z.Start()
	}
}

// Stop stops every zone. Container state is kept.
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, z := range w.zones {
		z.Stop()
	}
}

// Tick advances simulated time: due zone runs first, then animations.
func (w *World) Tick(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = w.now.Add(dt)
	w.tick++
	w.sched.Update(w.now)
	w.animator.Update(dt)
}

// Carrier looks up a carrier by id.
func (w *World) Carrier(id string) (*Carrier, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.carriers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCarrier, id)
	}
	return c, nil
}

// Station looks up a station by id.
func (w *World) Station(id string) (*Station, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.stations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	return s, nil
}

// Zones returns the configured zones.
func (w *World) Zones() []zones.Zone {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]zones.Zone, len(w.zones))
	copy(out, w.zones)
	return out
}

// Catalog exposes item type metadata.
func (w *World) Catalog() *catalog.Catalog { return w.catalog }

// Bus returns the event bus zones and containers publish to.
func (w *World) Bus() events.Bus { return w.bus }

// HasOwner reports whether id names a carrier or a station.
func (w *World) HasOwner(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, isCarrier := w.carriers[id]
	_, isStation := w.stations[id]
	return isCarrier || isStation
}
