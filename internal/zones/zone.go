// Package zones implements the gameplay loops that move cargo between
// stations and carriers. Every zone is a periodic schedule.Task whose body
// performs one synchronous container operation per run.
package zones

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/catalog"
	"github.com/gravitas-games/cargoyard/internal/events"
	"github.com/gravitas-games/cargoyard/internal/scene"
	"github.com/gravitas-games/cargoyard/internal/schedule"
	"github.com/gravitas-games/cargoyard/internal/view"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// Bay is a container together with its presentation.
type Bay struct {
	Owner     string
	Container cargo.Container
	View      *view.View
}

// Station holds a single bay of one item type.
type Station interface {
	ID() string
	Bay() Bay
}

// Carrier holds one bay per item type and a wallet.
type Carrier interface {
	ID() string
	BayFor(itemType cargo.ItemType) (Bay, bool)
	Bays() []Bay
	Credit(amount int) int
}

// Deps are the collaborators shared by every zone.
type Deps struct {
	Scheduler *schedule.Scheduler
	Bus       events.Bus
	Arena     *view.Arena
	Catalog   *catalog.Catalog
	// Scene receives nodes of items in transit between bays.
	Scene *scene.Node
	Log   logrus.FieldLogger
}

// Zone is a cancellable gameplay loop.
type Zone interface {
	Name() string
	Start()
	Stop()
	Running() bool
	// Step runs one iteration immediately and reports whether cargo moved.
	Step() bool
}

// loop holds the scheduling and full-signal bookkeeping every zone shares.
type loop struct {
	name     string
	interval time.Duration
	moveTime time.Duration
	deps     Deps
	log      logrus.FieldLogger
	task     *schedule.Task
	step     func() bool

	reportedFull map[cargo.Container]bool
}

func newLoop(name string, interval, moveTime time.Duration, deps Deps) loop {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if deps.Bus == nil {
		deps.Bus = events.NullBus{}
	}
	return loop{
		name:         name,
		interval:     interval,
		moveTime:     moveTime,
		deps:         deps,
		log:          log.WithField("zone", name),
		reportedFull: make(map[cargo.Container]bool),
	}
}

func (l *loop) Name() string  { return l.name }
func (l *loop) Running() bool { return l.task != nil }
func (l *loop) Step() bool    { return l.step() }

// Start schedules the loop. Starting a running zone is a no-op.
func (l *loop) Start() {
	if l.task != nil {
		return
	}
	l.task = l.deps.Scheduler.RunPeriodic(l.interval, func() { l.step() })
	l.log.WithField("interval", l.interval).Debug("zone started")
}

// Stop cancels the loop. Stopping twice is a no-op.
func (l *loop) Stop() {
	if l.task == nil {
		return
	}
	l.task.Cancel()
	l.task = nil
	l.log.Debug("zone stopped")
}

// checkFull publishes ContainerFull once per transition to full and reports
// whether c is full.
func (l *loop) checkFull(owner string, c cargo.Container) bool {
	if !c.IsFull() {
		l.reportedFull[c] = false
		return false
	}
	if !l.reportedFull[c] {
		l.reportedFull[c] = true
		l.deps.Bus.Publish(events.Event{
			Type:      events.ContainerFull,
			Owner:     owner,
			ItemType:  c.ItemType(),
			Slot:      -1,
			Zone:      l.name,
			Timestamp: l.deps.Scheduler.Now(),
		})
		l.log.WithFields(logrus.Fields{"owner": owner, "item_type": c.ItemType()}).Info("container full")
	}
	return true
}
