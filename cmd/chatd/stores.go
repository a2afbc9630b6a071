package main

import (
	"chat-rooms/errors"
	"chat-rooms/internal"
	"chat-rooms/repositories"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// stores groups the repositories selected by configuration.
// close releases them in reverse opening order.
type stores struct {
	chats         repositories.IChatRepository
	subscriptions repositories.ISubscriptionRepository
	closers       []func() error
}

func (s *stores) close(log *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn("Failed to close store", "error", err)
		}
	}
}

// openStores opens at most one badger database, shared by every badger-backed repository.
func openStores(ctx context.Context, config internal.Config, log *slog.Logger) (*stores, error) {
	s := &stores{}
	var db *badger.DB
	badgerDB := func() (*badger.DB, error) {
		if db != nil {
			return db, nil
		}
		opened, err := repositories.OpenBadger(ctx, config.BadgerFilepath, log)
		if err != nil {
			return nil, err
		}
		db = opened
		s.closers = append(s.closers, func() error {
			log.Info("Closing BadgerDB...")
			return db.Close()
		})
		return db, nil
	}

	switch config.StoreBackend {
	case repositories.BackendMemory:
		s.chats = repositories.NewMemoryChatRepository()
	case repositories.BackendBadger:
		db, err := badgerDB()
		if err != nil {
			s.close(log)
			return nil, err
		}
		s.chats = repositories.NewBadgerChatRepository(db, log)
	case repositories.BackendSQLite:
		repo, err := repositories.OpenSQLiteChatRepository(ctx, config.SQLiteFilepath, log)
		if err != nil {
			s.close(log)
			return nil, err
		}
		s.chats = repo
	default:
		return nil, fmt.Errorf("%w: store %q", errors.ErrUnknownBackend, config.StoreBackend)
	}
	s.closers = append(s.closers, s.chats.Close)

	switch config.SubscriptionBackend {
	case repositories.BackendMemory:
		s.subscriptions = repositories.NewMemorySubscriptionRepository()
	case repositories.BackendBadger:
		db, err := badgerDB()
		if err != nil {
			s.close(log)
			return nil, err
		}
		s.subscriptions = repositories.NewBadgerSubscriptionRepository(db, log)
	default:
		s.close(log)
		return nil, fmt.Errorf("%w: subscription %q", errors.ErrUnknownBackend, config.SubscriptionBackend)
	}

	log.Info("Stores opened", "chat_backend", config.StoreBackend,
		"subscription_backend", config.SubscriptionBackend)
	return s, nil
}
