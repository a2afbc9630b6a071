package event

import "chat-rooms/domain/chat"

type DomainEvent interface {
	RoomID() chat.RoomID
}

// MessagePosted is emitted once a message has been durably committed.
type MessagePosted struct {
	Room     chat.RoomID
	RoomName string
	Message  chat.Message
}

func (m MessagePosted) RoomID() chat.RoomID {
	return m.Room
}
