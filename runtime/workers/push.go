package workers

import (
	"chat-rooms/contract"
	"chat-rooms/domain/notification"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"context"
	"log/slog"
	"time"
)

// PushWorker drains the notification queue and delivers each job once.
// A failed delivery is never retried: the subscription is invalidated instead,
// unless it has been replaced since the job was queued.
type PushWorker struct {
	log           *slog.Logger
	pusher        contract.Pusher
	subscriptions repositories.ISubscriptionRepository
	monitoring    *observability.MonitoringManager
	jobs          <-chan notification.Job
	timeout       time.Duration
}

func NewPushWorker(log *slog.Logger, pusher contract.Pusher,
	subscriptions repositories.ISubscriptionRepository,
	monitoring *observability.MonitoringManager,
	jobs <-chan notification.Job, timeout time.Duration) *PushWorker {
	return &PushWorker{
		log:           log,
		pusher:        pusher,
		subscriptions: subscriptions,
		monitoring:    monitoring,
		jobs:          jobs,
		timeout:       timeout,
	}
}

func (w *PushWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping push delivery")
			return nil
		case job := <-w.jobs:
			w.Deliver(ctx, job)
		}
	}
}

// Deliver sends one job and prunes the subscription on failure.
// A push cut short by ctx itself (shutdown) says nothing about the endpoint and is not pruned.
func (w *PushWorker) Deliver(ctx context.Context, job notification.Job) {
	pushCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.pusher.Push(pushCtx, job.Subscription, job.Payload)
	if err == nil {
		w.monitoring.IncrPushSent()
		w.log.Debug("Push delivered", "identity", job.Identity, "room_id", job.RoomID)
		return
	}

	w.monitoring.IncrPushFailed()
	if ctx.Err() != nil {
		w.log.Info("Push interrupted by shutdown, subscription kept",
			"identity", job.Identity, "room_id", job.RoomID, "error", err)
		return
	}
	w.log.Warn("Push delivery failed, invalidating subscription",
		"identity", job.Identity, "room_id", job.RoomID, "error", err)

	// The invalidation must complete even if shutdown starts meanwhile.
	storeCtx, cancelStore := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancelStore()
	removed, err := w.subscriptions.Invalidate(storeCtx, job.Identity, job.Subscription.Endpoint)
	if err != nil {
		w.log.Error("Subscription invalidation failed", "identity", job.Identity, "error", err)
		return
	}
	if removed {
		w.monitoring.IncrSubscriptionsPruned()
		w.log.Info("Subscription removed", "identity", job.Identity)
	}
}
