package repositories

import (
	"chat-rooms/domain/notification"
	"chat-rooms/errors"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

var _ ISubscriptionRepository = (*BadgerSubscriptionRepository)(nil)

// BadgerSubscriptionRepository stores one subscription per identity under "sub:{identity}".
type BadgerSubscriptionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerSubscriptionRepository(db *badger.DB, log *slog.Logger) *BadgerSubscriptionRepository {
	return &BadgerSubscriptionRepository{db: db, log: log}
}

func subscriptionKey(identity string) []byte { return []byte("sub:" + identity) }

func (b *BadgerSubscriptionRepository) Upsert(_ context.Context, identity string, subscription notification.Subscription) error {
	bytes, err := json.Marshal(subscription)
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(subscriptionKey(identity), bytes)
	})
	return storeError(err)
}

func (b *BadgerSubscriptionRepository) Get(_ context.Context, identity string) (notification.Subscription, bool, error) {
	var subscription notification.Subscription
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		current, ok, err := readSubscription(txn, identity)
		subscription, found = current, ok
		return err
	})
	if err != nil {
		return notification.Subscription{}, false, storeError(err)
	}
	return subscription, found, nil
}

// Invalidate compares and deletes in one transaction, retrying on write conflicts.
func (b *BadgerSubscriptionRepository) Invalidate(_ context.Context, identity, endpoint string) (bool, error) {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		removed := false
		err = b.db.Update(func(txn *badger.Txn) error {
			current, ok, err := readSubscription(txn, identity)
			if err != nil || !ok || current.Endpoint != endpoint {
				return err
			}
			removed = true
			return txn.Delete(subscriptionKey(identity))
		})
		if err == nil {
			return removed, nil
		}
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return false, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
}

func readSubscription(txn *badger.Txn, identity string) (notification.Subscription, bool, error) {
	item, err := txn.Get(subscriptionKey(identity))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return notification.Subscription{}, false, nil
	}
	if err != nil {
		return notification.Subscription{}, false, err
	}
	var subscription notification.Subscription
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &subscription)
	})
	return subscription, err == nil, err
}
