// Package chat contains the core concepts of the group chat.
// Rooms own an ordered, append-only log of messages.
// No runtime, network, or storage logic should be added here.
package chat

import "github.com/samber/lo"

// RoomID is an opaque, globally unique identifier. It is never reused.
type RoomID string

func (id RoomID) String() string { return string(id) }

type Room struct {
	ID       RoomID
	Name     string
	Messages []Message
}

// Summary is the catalogue view of a room.
type Summary struct {
	ID   RoomID `json:"id"`
	Name string `json:"name"`
}

// Record is the persisted shape of a room.
type Record struct {
	ID       RoomID   `json:"id"`
	Name     string   `json:"name"`
	Messages []string `json:"messages"`
}

func NewRoom(id RoomID, name string) Room {
	return Room{ID: id, Name: name, Messages: nil}
}

func (r Room) Summary() Summary {
	return Summary{ID: r.ID, Name: r.Name}
}

// History returns the formatted log in commit order.
func (r Room) History() []string {
	return lo.Map(r.Messages, func(m Message, _ int) string {
		return m.Format()
	})
}

func (r Room) Record() Record {
	return Record{ID: r.ID, Name: r.Name, Messages: r.History()}
}
