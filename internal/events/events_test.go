package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestSimpleBusDeliversInOrder(t *testing.T) {
	bus := NewSimpleBus()
	var got []string
	bus.Subscribe("b", func(e Event) { got = append(got, "b:"+e.Type.String()) })
	bus.Subscribe("a", func(e Event) { got = append(got, "a:"+e.Type.String()) })
	bus.Publish(Event{Type: ContainerFull})
	if len(got) != 2 || got[0] != "a:container_full" || got[1] != "b:container_full" {
		t.Fatalf("unexpected delivery %v", got)
	}
	bus.Unsubscribe("a")
	bus.Publish(Event{Type: ItemSold})
	if len(got) != 3 || got[2] != "b:item_sold" || bus.Len() != 1 {
		t.Fatalf("unexpected delivery after unsubscribe %v", got)
	}
}

func TestSimpleBusHandlerMayUnsubscribe(t *testing.T) {
	bus := NewSimpleBus()
	calls := 0
	bus.Subscribe("once", func(Event) {
		calls++
		bus.Unsubscribe("once")
	})
	bus.Publish(Event{})
	bus.Publish(Event{})
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

type fakePublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, message.([]byte))
	return redis.NewIntResult(1, f.err)
}

func TestRedisBusForwardsSelectedTypes(t *testing.T) {
	inner := NewSimpleBus()
	local := 0
	inner.Subscribe("obs", func(Event) { local++ })
	pub := &fakePublisher{}
	logger, _ := logtest.NewNullLogger()
	bus := NewRedisBus(inner, pub, "cargo", logger)

	bus.Publish(Event{Type: ItemOccupied, Owner: "s1"})
	bus.Publish(Event{Type: ContainerFull, Owner: "s1", ItemType: "corn"})
	if local != 2 {
		t.Fatalf("expected local delivery of both events, got %d", local)
	}
	if len(pub.payloads) != 1 || pub.channels[0] != "cargo" {
		t.Fatalf("expected one forwarded event, got %d", len(pub.payloads))
	}
	var decoded map[string]any
	if err := json.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if decoded["type"] != "container_full" || decoded["owner"] != "s1" {
		t.Fatalf("unexpected payload %v", decoded)
	}
}

func TestRedisBusLogsFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	logger, hook := logtest.NewNullLogger()
	bus := NewRedisBus(NewSimpleBus(), pub, "cargo", logger)
	bus.Publish(Event{Type: ItemSold})
	if len(hook.Entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(hook.Entries))
	}
	if hook.LastEntry().Data["channel"] != "cargo" {
		t.Fatalf("expected channel field on log entry")
	}
}
