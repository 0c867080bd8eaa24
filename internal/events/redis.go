package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Publisher is the part of a Redis client RedisBus needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisBus wraps a local bus and forwards selected event types to a Redis
// pub/sub channel. Local delivery always happens; Redis errors are logged.
type RedisBus struct {
	inner   Bus
	client  Publisher
	channel string
	forward map[Type]bool
	timeout time.Duration
	log     logrus.FieldLogger
}

// DefaultForwarded lists the event types other services care about.
var DefaultForwarded = []Type{ContainerFull, ItemSold}

// NewRedisBus forwards the given types, or DefaultForwarded when none are given.
func NewRedisBus(inner Bus, client Publisher, channel string, log logrus.FieldLogger, types ...Type) *RedisBus {
	if len(types) == 0 {
		types = DefaultForwarded
	}
	fwd := make(map[Type]bool, len(types))
	for _, t := range types {
		fwd[t] = true
	}
	return &RedisBus{
		inner:   inner,
		client:  client,
		channel: channel,
		forward: fwd,
		timeout: 2 * time.Second,
		log:     log.WithField("channel", channel),
	}
}

func (b *RedisBus) Subscribe(id string, handler func(Event)) { b.inner.Subscribe(id, handler) }
func (b *RedisBus) Unsubscribe(id string)                    { b.inner.Unsubscribe(id) }

func (b *RedisBus) Publish(event Event) {
	b.inner.Publish(event)
	if !b.forward[event.Type] {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		b.log.WithError(err).Warn("failed to encode event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.WithError(err).WithField("event", event.Type.String()).Warn("failed to forward event to redis")
	}
}
