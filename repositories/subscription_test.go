package repositories

import (
	"chat-rooms/domain/notification"
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func subscriptionBackends() map[string]func(t *testing.T) ISubscriptionRepository {
	return map[string]func(t *testing.T) ISubscriptionRepository{
		BackendMemory: func(t *testing.T) ISubscriptionRepository {
			return NewMemorySubscriptionRepository()
		},
		BackendBadger: func(t *testing.T) ISubscriptionRepository {
			db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return NewBadgerSubscriptionRepository(db, slog.Default())
		},
	}
}

func subscriptionFor(endpoint string) notification.Subscription {
	return notification.Subscription{
		Endpoint: endpoint,
		Keys:     notification.Keys{P256dh: "p256dh", Auth: "auth"},
	}
}

func Test_Subscription_Repositories(t *testing.T) {
	for name, factory := range subscriptionBackends() {
		t.Run(name, func(t *testing.T) {
			t.Run("upsert replaces the previous subscription", func(t *testing.T) {
				req := require.New(t)
				ctx := context.Background()
				repository := factory(t)

				req.NoError(repository.Upsert(ctx, "alice", subscriptionFor("https://push.example/1")))
				req.NoError(repository.Upsert(ctx, "alice", subscriptionFor("https://push.example/2")))

				subscription, ok, err := repository.Get(ctx, "alice")
				req.NoError(err)
				req.True(ok)
				req.Equal("https://push.example/2", subscription.Endpoint)
			})

			t.Run("unknown identity has no subscription", func(t *testing.T) {
				req := require.New(t)
				_, ok, err := factory(t).Get(context.Background(), "nobody")
				req.NoError(err)
				req.False(ok)
			})

			t.Run("invalidate removes a matching endpoint", func(t *testing.T) {
				req := require.New(t)
				ctx := context.Background()
				repository := factory(t)
				req.NoError(repository.Upsert(ctx, "alice", subscriptionFor("https://push.example/1")))

				removed, err := repository.Invalidate(ctx, "alice", "https://push.example/1")
				req.NoError(err)
				req.True(removed)

				_, ok, err := repository.Get(ctx, "alice")
				req.NoError(err)
				req.False(ok)
			})

			t.Run("invalidate keeps a newer endpoint", func(t *testing.T) {
				req := require.New(t)
				ctx := context.Background()
				repository := factory(t)
				req.NoError(repository.Upsert(ctx, "alice", subscriptionFor("https://push.example/new")))

				removed, err := repository.Invalidate(ctx, "alice", "https://push.example/old")
				req.NoError(err)
				req.False(removed)

				subscription, ok, err := repository.Get(ctx, "alice")
				req.NoError(err)
				req.True(ok)
				req.Equal("https://push.example/new", subscription.Endpoint)
			})

			t.Run("invalidate on unknown identity is a no-op", func(t *testing.T) {
				req := require.New(t)
				removed, err := factory(t).Invalidate(context.Background(), "nobody", "https://push.example/1")
				req.NoError(err)
				req.False(removed)
			})
		})
	}
}
