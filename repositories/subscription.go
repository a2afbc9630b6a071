//go:generate go run go.uber.org/mock/mockgen -source=subscription.go -destination=../mocks/mock_subscription_repository.go -package=mocks
package repositories

import (
	"chat-rooms/domain/notification"
	"context"
	"sync"
)

// ISubscriptionRepository holds at most one push subscription per identity.
// Invalidate removes the subscription only while its endpoint still matches,
// so a fresh subscription saved after a failed delivery is not lost.
type ISubscriptionRepository interface {
	Upsert(ctx context.Context, identity string, subscription notification.Subscription) error
	Get(ctx context.Context, identity string) (notification.Subscription, bool, error)
	Invalidate(ctx context.Context, identity, endpoint string) (bool, error)
}

var _ ISubscriptionRepository = (*MemorySubscriptionRepository)(nil)

type MemorySubscriptionRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]notification.Subscription
}

func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{subscriptions: make(map[string]notification.Subscription)}
}

func (m *MemorySubscriptionRepository) Upsert(_ context.Context, identity string, subscription notification.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[identity] = subscription
	return nil
}

func (m *MemorySubscriptionRepository) Get(_ context.Context, identity string) (notification.Subscription, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subscription, ok := m.subscriptions[identity]
	return subscription, ok, nil
}

func (m *MemorySubscriptionRepository) Invalidate(_ context.Context, identity, endpoint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.subscriptions[identity]
	if !ok || current.Endpoint != endpoint {
		return false, nil
	}
	delete(m.subscriptions, identity)
	return true, nil
}
