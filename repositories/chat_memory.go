package repositories

import (
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ IChatRepository = (*MemoryChatRepository)(nil)

// MemoryChatRepository keeps everything in process memory.
// Intended for development; nothing survives a restart.
type MemoryChatRepository struct {
	mu    sync.RWMutex
	rooms map[chat.RoomID]*memoryRoom
	order []chat.RoomID
}

// summary is immutable; messages is guarded by mu.
type memoryRoom struct {
	summary  chat.Summary
	mu       sync.Mutex
	messages []chat.Message
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{rooms: make(map[chat.RoomID]*memoryRoom)}
}

func (m *MemoryChatRepository) Create(_ context.Context, name string) (chat.Room, error) {
	room := chat.NewRoom(chat.RoomID(uuid.NewString()), name)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = &memoryRoom{summary: room.Summary()}
	m.order = append(m.order, room.ID)
	return room, nil
}

func (m *MemoryChatRepository) Get(_ context.Context, id chat.RoomID) (chat.Room, error) {
	entry, err := m.lookup(id)
	if err != nil {
		return chat.Room{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	room := chat.NewRoom(entry.summary.ID, entry.summary.Name)
	room.Messages = slices.Clone(entry.messages)
	return room, nil
}

func (m *MemoryChatRepository) AppendMessage(_ context.Context, id chat.RoomID, message chat.Message) (chat.Message, error) {
	entry, err := m.lookup(id)
	if err != nil {
		return chat.Message{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	message.Seq = int64(len(entry.messages)) + 1
	entry.messages = append(entry.messages, message)
	return message, nil
}

func (m *MemoryChatRepository) ListAll(_ context.Context) ([]chat.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Map(m.order, func(id chat.RoomID, _ int) chat.Summary {
		return m.rooms[id].summary
	}), nil
}

func (m *MemoryChatRepository) Close() error { return nil }

func (m *MemoryChatRepository) lookup(id chat.RoomID) (*memoryRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", errors.ErrNotFound, id)
	}
	return entry, nil
}
