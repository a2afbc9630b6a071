package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"chat-rooms/observability"
	"context"
	"log/slog"
	"time"
)

// Broadcaster delivers a committed message to every live member of its room.
//
// Delivery is best effort per sink: a slow or closed connection is logged and
// skipped, and the others still receive the event. Broadcasts to the same room
// are serialized so every member observes the same relative order.
type Broadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	monitoring  *observability.MonitoringManager
	sinkTimeout time.Duration
	locks       RoomLocks
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry,
	monitoring *observability.MonitoringManager, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, monitoring: monitoring, sinkTimeout: sinkTimeout}
}

// Broadcast returns the number of members the event was handed to.
func (b *Broadcaster) Broadcast(ctx context.Context, evt event.MessagePosted) int {
	unlock := b.locks.Lock(evt.RoomID())
	defer unlock()

	members := b.registry.Members(evt.RoomID())
	delivered, failed := 0, 0
	for _, member := range members {
		if err := b.consume(ctx, member.Sink, evt); err != nil {
			failed++
			b.log.Warn("Live delivery failed",
				"room_id", evt.RoomID(), "connection_id", member.ConnectionID, "error", err)
			continue
		}
		delivered++
	}
	b.monitoring.IncrDeliveries(delivered, failed)
	b.log.Debug("Message broadcast", "room_id", evt.RoomID(), "seq", evt.Message.Seq,
		"delivered", delivered, "failed", failed)
	return delivered
}

// consume bounds one sink call so a stuck connection cannot hold the room.
func (b *Broadcaster) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) error {
	sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
	defer cancel()
	return sink.Consume(sinkCtx, evt)
}
