//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"chat-rooms/domain/chat"
	"context"
)

// IChatRepository is the durable catalogue of rooms and their ordered message logs.
// AppendMessage is atomic per room: two concurrent appends never corrupt each other
// and each receives a distinct, gap-free sequence number.
type IChatRepository interface {
	Create(ctx context.Context, name string) (chat.Room, error)
	Get(ctx context.Context, id chat.RoomID) (chat.Room, error)
	AppendMessage(ctx context.Context, id chat.RoomID, message chat.Message) (chat.Message, error)
	ListAll(ctx context.Context) ([]chat.Summary, error)
	Close() error
}

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)
