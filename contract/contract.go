//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-rooms/domain/chat"
	"chat-rooms/domain/event"
	"chat-rooms/domain/notification"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the live delivery side of one connection.
// Consume must not block beyond ctx; a full or closed sink returns an error.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Pusher delivers one payload to one push endpoint, without retry.
type Pusher interface {
	Push(ctx context.Context, subscription notification.Subscription, payload []byte) error
}

// Member is one live connection inside a room.
type Member struct {
	ConnectionID chat.ConnectionID
	Identity     string
	Sink         EventSink
}

// IRegistry is the presence and room membership index.
type IRegistry interface {
	Attach(connID chat.ConnectionID, sink EventSink)
	SetIdentity(connID chat.ConnectionID, name string)
	Identity(connID chat.ConnectionID) (string, bool)
	Join(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID) (chat.Room, error)
	Leave(connID chat.ConnectionID, roomID chat.RoomID)
	IsMember(connID chat.ConnectionID, roomID chat.RoomID) bool
	Rooms(connID chat.ConnectionID) []chat.RoomID
	Members(roomID chat.RoomID) []Member
	Identities(roomID chat.RoomID) []string
	Disconnect(connID chat.ConnectionID) bool
}
