package observability

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Counters(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mm.ConnectionOpened()
			mm.IncrMessagesPosted()
			mm.IncrDeliveries(3, 1)
		}()
	}
	wg.Wait()
	mm.ConnectionClosed()
	mm.IncrPushSent()
	mm.IncrPushFailed()
	mm.IncrPushDropped()
	mm.IncrSubscriptionsPruned()
	mm.IncrRoomsCreated()

	stats := mm.GetLatest()
	req.Equal(int64(9), stats.ActiveConnections)
	req.Equal(uint64(10), stats.MessagesPosted)
	req.Equal(uint64(30), stats.Deliveries)
	req.Equal(uint64(10), stats.DeliveryFailures)
	req.Equal(uint64(1), stats.PushSent)
	req.Equal(uint64(1), stats.PushFailed)
	req.Equal(uint64(1), stats.PushDropped)
	req.Equal(uint64(1), stats.SubscriptionsPruned)
	req.Equal(uint64(1), stats.RoomsCreated)
	req.Equal(slog.KindGroup, mm.LogValue().Kind())
}
