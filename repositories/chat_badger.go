package repositories

import (
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"context"
	"encoding/binary"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const maxConflictRetries = 64

var _ IChatRepository = (*BadgerChatRepository)(nil)

// BadgerChatRepository stores rooms and messages in BadgerDB.
//
// Key layout:
//
//	room:{id}                     room metadata
//	idx:{created_padded}:{id}     creation order, scanned by ListAll
//	seq:{id}                      last committed sequence number
//	msg:{id}:{seq_padded}         one message
//
// The 19-digit zero padding keeps lexicographical order equal to numeric order,
// so a prefix scan returns messages in commit order.
type BadgerChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerChatRepository(db *badger.DB, log *slog.Logger) *BadgerChatRepository {
	return &BadgerChatRepository{db: db, log: log}
}

type diskRoom struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

func roomKey(id chat.RoomID) []byte { return []byte("room:" + id.String()) }
func seqKey(id chat.RoomID) []byte  { return []byte("seq:" + id.String()) }
func messagePrefix(id chat.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", id))
}
func messageKey(id chat.RoomID, seq int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", id, seq))
}
func indexKey(createdAt int64, id chat.RoomID) []byte {
	return []byte(fmt.Sprintf("idx:%019d:%s", createdAt, id))
}

func (b *BadgerChatRepository) Create(_ context.Context, name string) (chat.Room, error) {
	room := chat.NewRoom(chat.RoomID(uuid.NewString()), name)
	meta := diskRoom{ID: room.ID.String(), Name: name, CreatedAt: time.Now().UTC().UnixNano()}
	bytes, err := json.Marshal(meta)
	if err != nil {
		return chat.Room{}, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(roomKey(room.ID), bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(meta.CreatedAt, room.ID), []byte(room.ID))
	})
	if err != nil {
		return chat.Room{}, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	return room, nil
}

func (b *BadgerChatRepository) Get(_ context.Context, id chat.RoomID) (chat.Room, error) {
	var room chat.Room
	err := b.db.View(func(txn *badger.Txn) error {
		meta, err := readRoom(txn, id)
		if err != nil {
			return err
		}
		room = chat.NewRoom(id, meta.Name)

		prefix := messagePrefix(id)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message chat.Message
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			room.Messages = append(room.Messages, message)
		}
		return nil
	})
	if err != nil {
		return chat.Room{}, storeError(err)
	}
	return room, nil
}

// AppendMessage assigns the next sequence number and writes the message in a
// single transaction. Badger's optimistic concurrency rejects one of two racing
// appends with ErrConflict, which is retried.
func (b *BadgerChatRepository) AppendMessage(ctx context.Context, id chat.RoomID, message chat.Message) (chat.Message, error) {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var committed chat.Message
		err = b.db.Update(func(txn *badger.Txn) error {
			if _, err := readRoom(txn, id); err != nil {
				return err
			}
			seq, err := readSeq(txn, id)
			if err != nil {
				return err
			}
			committed = message
			committed.Seq = seq + 1
			bytes, err := json.Marshal(committed)
			if err != nil {
				return err
			}
			if err := txn.Set(messageKey(id, committed.Seq), bytes); err != nil {
				return err
			}
			return txn.Set(seqKey(id), binary.BigEndian.AppendUint64(nil, uint64(committed.Seq)))
		})
		if err == nil {
			return committed, nil
		}
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
		b.log.Debug("Append conflict, retrying", "room", id, "attempt", attempt+1)
		if ctx.Err() != nil {
			return chat.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreFailure, ctx.Err())
		}
	}
	return chat.Message{}, storeError(err)
}

func (b *BadgerChatRepository) ListAll(_ context.Context) ([]chat.Summary, error) {
	var summaries []chat.Summary
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte("idx:")
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id chat.RoomID
			err := it.Item().Value(func(value []byte) error {
				id = chat.RoomID(value)
				return nil
			})
			if err != nil {
				return err
			}
			meta, err := readRoom(txn, id)
			if err != nil {
				return err
			}
			summaries = append(summaries, chat.Summary{ID: id, Name: meta.Name})
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return summaries, nil
}

// Close flushes pending writes. The database itself is owned by the caller.
func (b *BadgerChatRepository) Close() error {
	return b.db.Sync()
}

func readRoom(txn *badger.Txn, id chat.RoomID) (diskRoom, error) {
	item, err := txn.Get(roomKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return diskRoom{}, fmt.Errorf("%w: room %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return diskRoom{}, err
	}
	var meta diskRoom
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &meta)
	})
	return meta, err
}

func readSeq(txn *badger.Txn, id chat.RoomID) (int64, error) {
	item, err := txn.Get(seqKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq int64
	err = item.Value(func(value []byte) error {
		seq = int64(binary.BigEndian.Uint64(value))
		return nil
	})
	return seq, err
}

// storeError keeps not-found errors intact and classifies everything else as a store failure.
func storeError(err error) error {
	if err == nil || stderrors.Is(err, errors.ErrNotFound) || stderrors.Is(err, errors.ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
}
