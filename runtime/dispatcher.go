package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"chat-rooms/domain/notification"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"context"
	"log/slog"
)

// Dispatcher turns a committed message into push jobs for the room's other identities.
// It never blocks the sender: a full queue drops the job, and delivery outcomes
// are handled by the push workers draining Jobs.
type Dispatcher struct {
	log           *slog.Logger
	registry      contract.IRegistry
	subscriptions repositories.ISubscriptionRepository
	monitoring    *observability.MonitoringManager
	jobs          chan notification.Job
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry,
	subscriptions repositories.ISubscriptionRepository,
	monitoring *observability.MonitoringManager, queueSize int) *Dispatcher {
	return &Dispatcher{
		log:           log,
		registry:      registry,
		subscriptions: subscriptions,
		monitoring:    monitoring,
		jobs:          make(chan notification.Job, queueSize),
	}
}

func (d *Dispatcher) Jobs() <-chan notification.Job {
	return d.jobs
}

// Subscribe replaces any subscription previously held by identity.
func (d *Dispatcher) Subscribe(ctx context.Context, identity string, subscription notification.Subscription) error {
	return d.subscriptions.Upsert(ctx, identity, subscription)
}

// Notify enqueues one job per interested identity and returns the number enqueued.
// The sender's own identity is never notified.
func (d *Dispatcher) Notify(ctx context.Context, evt event.MessagePosted) int {
	payload, err := notification.NewPayload(evt.RoomName, evt.Message).Bytes()
	if err != nil {
		d.log.Error("Failed to encode push payload", "room_id", evt.RoomID(), "error", err)
		return 0
	}

	enqueued := 0
	for _, identity := range d.registry.Identities(evt.RoomID()) {
		if identity == evt.Message.Sender {
			continue
		}
		subscription, ok, err := d.subscriptions.Get(ctx, identity)
		if err != nil {
			d.log.Warn("Subscription lookup failed", "identity", identity, "error", err)
			continue
		}
		if !ok {
			continue
		}
		job := notification.Job{
			Identity:     identity,
			RoomID:       evt.RoomID(),
			Subscription: subscription,
			Payload:      payload,
		}
		select {
		case d.jobs <- job:
			enqueued++
		default:
			d.monitoring.IncrPushDropped()
			d.log.Warn("Push queue full, dropping notification", "room_id", evt.RoomID(), "identity", identity)
		}
	}
	return enqueued
}
