// Package observability holds the in-process counters reported by the heartbeat.
package observability

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time copy of the counters.
type Stats struct {
	ActiveConnections   int64  `json:"active_connections"`
	RoomsCreated        uint64 `json:"rooms_created"`
	MessagesPosted      uint64 `json:"messages_posted"`
	Deliveries          uint64 `json:"deliveries"`
	DeliveryFailures    uint64 `json:"delivery_failures"`
	PushSent            uint64 `json:"push_sent"`
	PushFailed          uint64 `json:"push_failed"`
	PushDropped         uint64 `json:"push_dropped"`
	SubscriptionsPruned uint64 `json:"subscriptions_pruned"`
	Uptime              string `json:"uptime"`
}

// MonitoringManager aggregates service counters; every method is safe for concurrent use.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time

	activeConnections   int64
	roomsCreated        uint64
	messagesPosted      uint64
	deliveries          uint64
	deliveryFailures    uint64
	pushSent            uint64
	pushFailed          uint64
	pushDropped         uint64
	subscriptionsPruned uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log, startedAt: time.Now()}
}

func (mm *MonitoringManager) ConnectionOpened() { atomic.AddInt64(&mm.activeConnections, 1) }
func (mm *MonitoringManager) ConnectionClosed() { atomic.AddInt64(&mm.activeConnections, -1) }
func (mm *MonitoringManager) IncrRoomsCreated() { atomic.AddUint64(&mm.roomsCreated, 1) }
func (mm *MonitoringManager) IncrMessagesPosted() {
	atomic.AddUint64(&mm.messagesPosted, 1)
}

// IncrDeliveries records the outcome of one live broadcast.
func (mm *MonitoringManager) IncrDeliveries(delivered, failed int) {
	atomic.AddUint64(&mm.deliveries, uint64(delivered))
	atomic.AddUint64(&mm.deliveryFailures, uint64(failed))
}

func (mm *MonitoringManager) IncrPushSent()   { atomic.AddUint64(&mm.pushSent, 1) }
func (mm *MonitoringManager) IncrPushFailed() { atomic.AddUint64(&mm.pushFailed, 1) }
func (mm *MonitoringManager) IncrPushDropped() {
	atomic.AddUint64(&mm.pushDropped, 1)
}
func (mm *MonitoringManager) IncrSubscriptionsPruned() {
	atomic.AddUint64(&mm.subscriptionsPruned, 1)
}

func (mm *MonitoringManager) GetLatest() Stats {
	return Stats{
		ActiveConnections:   atomic.LoadInt64(&mm.activeConnections),
		RoomsCreated:        atomic.LoadUint64(&mm.roomsCreated),
		MessagesPosted:      atomic.LoadUint64(&mm.messagesPosted),
		Deliveries:          atomic.LoadUint64(&mm.deliveries),
		DeliveryFailures:    atomic.LoadUint64(&mm.deliveryFailures),
		PushSent:            atomic.LoadUint64(&mm.pushSent),
		PushFailed:          atomic.LoadUint64(&mm.pushFailed),
		PushDropped:         atomic.LoadUint64(&mm.pushDropped),
		SubscriptionsPruned: atomic.LoadUint64(&mm.subscriptionsPruned),
		Uptime:              time.Since(mm.startedAt).Truncate(time.Second).String(),
	}
}

// LogValue lets the manager be passed directly as a slog attribute.
func (mm *MonitoringManager) LogValue() slog.Value {
	s := mm.GetLatest()
	return slog.GroupValue(
		slog.Int64("active_connections", s.ActiveConnections),
		slog.Uint64("rooms_created", s.RoomsCreated),
		slog.Uint64("messages_posted", s.MessagesPosted),
		slog.Uint64("deliveries", s.Deliveries),
		slog.Uint64("delivery_failures", s.DeliveryFailures),
		slog.Uint64("push_sent", s.PushSent),
		slog.Uint64("push_failed", s.PushFailed),
		slog.Uint64("push_dropped", s.PushDropped),
		slog.Uint64("subscriptions_pruned", s.SubscriptionsPruned),
		slog.String("uptime", s.Uptime),
	)
}
