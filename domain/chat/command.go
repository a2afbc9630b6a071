package chat

// ConnectionID identifies one live transport session.
type ConnectionID string

type PostMessageCommand struct {
	Room         RoomID
	ConnectionID ConnectionID
	Content      string
}

func (p PostMessageCommand) RoomID() RoomID {
	return p.Room
}
