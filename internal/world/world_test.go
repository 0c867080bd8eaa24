package world

import (
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/gravitas-games/cargoyard/internal/config"
	"github.com/gravitas-games/cargoyard/internal/events"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const worldYAML = `
catalog:
  - {id: corn, price: 2}
  - {id: money, price: 25}
stations:
  - id: field
    item_type: corn
    grid: {count_x: 2, count_y: 2, count_z: 1, interval_x: 1, interval_y: 1, interval_z: 1}
carriers:
  - id: farmer
    spacing: 0.5
    containers:
      - item_type: money
        grid: {count_x: 1, count_y: 2, count_z: 1, interval_x: 1, interval_y: 1, interval_z: 2}
      - item_type: corn
        grid: {count_x: 1, count_y: 4, count_z: 1, interval_x: 1, interval_y: 1, interval_z: 1}
  - spacing: 0.1
    containers:
      - item_type: corn
        grid: {count_x: 1, count_y: 1, count_z: 1}
zones:
  - {name: grow, kind: producer, station: field, interval: 1s}
  - {name: pick, kind: collector, station: field, carrier: farmer, interval: 1s, move_duration: 100ms}
  - {name: sell, kind: seller, carrier: farmer, item_type: corn, interval: 10s}
`

func newTestWorld(t *testing.T) (*World, *events.SimpleBus) {
	t.Helper()
	cfg, err := config.Parse([]byte(worldYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	logger, _ := logtest.NewNullLogger()
	bus := events.NewSimpleBus()
	w, err := New(cfg, bus, logger, epoch)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w, bus
}

func TestWorldRunsZones(t *testing.T) {
	w, bus := newTestWorld(t)
	counts := map[events.Type]int{}
	bus.Subscribe("count", func(e events.Event) { counts[e.Type]++ })

	w.Start()
	for i := 0; i < 20; i++ {
		w.Tick(500 * time.Millisecond)
	}
	snap := w.Snapshot()
	if snap.Tick != 20 {
		t.Fatalf("expected tick 20, got %d", snap.Tick)
	}
	if counts[events.ItemSpawned] == 0 || counts[events.ItemOccupied] == 0 || counts[events.ItemReleased] == 0 {
		t.Fatalf("expected zone activity, got %v", counts)
	}
	if counts[events.ItemSold] != 1 {
		t.Fatalf("expected one sale after 10s, got %d", counts[events.ItemSold])
	}
	farmer, err := w.Carrier("farmer")
	if err != nil {
		t.Fatalf("carrier: %v", err)
	}
	if farmer.Balance() != 2 {
		t.Fatalf("expected balance 2, got %d", farmer.Balance())
	}
	if len(snap.Carriers) != 2 || len(snap.Stations) != 1 {
		t.Fatalf("unexpected snapshot shape: %+v", snap)
	}
	if snap.Carriers[1].ID == "" {
		t.Fatalf("expected generated carrier id")
	}

	w.Stop()
	before := w.Snapshot()
	w.Tick(5 * time.Second)
	after := w.Snapshot()
	if before.Stations[0].Container.Occupied != after.Stations[0].Container.Occupied {
		t.Fatalf("stopped zones must not move cargo")
	}
}

func TestCarrierBaysAreComposed(t *testing.T) {
	w, _ := newTestWorld(t)
	farmer, _ := w.Carrier("farmer")
	corn, ok := farmer.BayFor("corn")
	if !ok {
		t.Fatalf("expected corn bay")
	}
	money, _ := farmer.BayFor("money")
	if _, ok := farmer.BayFor("loot"); ok {
		t.Fatalf("unexpected loot bay")
	}

	corn.Container.OccupyNextSlot(101)
	// money bay empty: corn packs at its own half depth
	if got := corn.View.Root().LocalPosition().Z; got != 0.5 {
		t.Fatalf("expected corn bay at z=0.5, got %v", got)
	}
	money.Container.OccupyNextSlot(102)
	// money half depth 1, spacing 0.5, corn half depth 0.5
	if got := money.View.Root().LocalPosition().Z; got != 1 {
		t.Fatalf("expected money bay at z=1, got %v", got)
	}
	if got := corn.View.Root().LocalPosition().Z; got != 3 {
		t.Fatalf("expected corn bay at z=3, got %v", got)
	}
	snap := w.Snapshot()
	if snap.Carriers[0].Containers[1].Offset.Z != 3 {
		t.Fatalf("snapshot offset mismatch: %+v", snap.Carriers[0].Containers[1])
	}
}

func TestLookupsReportUnknownIDs(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.Carrier("ghost"); !errors.Is(err, ErrUnknownCarrier) {
		t.Fatalf("expected ErrUnknownCarrier, got %v", err)
	}
	if _, err := w.Station("ghost"); !errors.Is(err, ErrUnknownStation) {
		t.Fatalf("expected ErrUnknownStation, got %v", err)
	}
	if len(w.Zones()) != 3 {
		t.Fatalf("expected three zones")
	}
}

func TestNewDefaultsNilBusAndLogger(t *testing.T) {
	cfg, err := config.Parse([]byte(worldYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	w, err := New(cfg, nil, nil, epoch)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w.Start()
	for i := 0; i < 3; i++ {
		w.Tick(time.Second)
	}
	w.Stop()
	if snap := w.Snapshot(); snap.Tick != 3 {
		t.Fatalf("expected 3 ticks, got %d", snap.Tick)
	}
}
