package server

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/events"
	"github.com/gravitas-games/cargoyard/internal/network"
)

// Session fans cargo events from the world bus out to observers
type Session struct {
	ID        string
	CreatedAt time.Time

	bus       events.Bus
	observers map[string]*Connection // keyed by connection id
	mu        sync.RWMutex
	log       logrus.FieldLogger
}

// NewSession creates a session subscribed to bus
func NewSession(id string, bus events.Bus, log logrus.FieldLogger) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		bus:       bus,
		observers: make(map[string]*Connection),
		log:       log.WithField("session", id),
	}
	bus.Subscribe(s.subscriberID(), s.dispatch)
	return s
}

func (s *Session) subscriberID() string { return "session:" + s.ID }

// AddObserver registers a connection for event delivery
func (s *Session) AddObserver(conn *Connection) {
	s.mu.Lock()
	s.observers[conn.id] = conn
	count := len(s.observers)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"connection": conn.id,
		"observers":  count,
	}).Info("observer joined")
}

// RemoveObserver drops a connection; unknown ids are ignored
func (s *Session) RemoveObserver(connID string) {
	s.mu.Lock()
	_, ok := s.observers[connID]
	delete(s.observers, connID)
	count := len(s.observers)
	s.mu.Unlock()

	if ok {
		s.log.WithFields(logrus.Fields{
			"connection": connID,
			"observers":  count,
		}).Info("observer left")
	}
}

// ObserverCount returns the number of connected observers
func (s *Session) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// ObserverIDs returns connection ids in sorted order
func (s *Session) ObserverIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops event delivery
func (s *Session) Close() {
	s.bus.Unsubscribe(s.subscriberID())
}

func (s *Session) dispatch(e events.Event) {
	s.mu.RLock()
	targets := make([]*Connection, 0, len(s.observers))
	for _, conn := range s.observers {
		if conn.Watches(e.Owner) {
			targets = append(targets, conn)
		}
	}
	s.mu.RUnlock()

	if len(targets) == 0 {
		return
	}
	msg := &network.ServerMessage{
		Type:    network.MsgTypeCargoEvent,
		Payload: network.CargoEventPayload{Event: e},
	}
	for _, conn := range targets {
		conn.SendMessage(msg)
	}
}
