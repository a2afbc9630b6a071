package runtime

import (
	"chat-rooms/domain/chat"
	"sync"
)

// RoomLocks hands out one mutex per room. Distinct rooms never share a lock.
// Entries are never evicted: room ids are never reused and the set stays
// bounded by the room catalogue.
type RoomLocks struct {
	locks sync.Map
}

func (l *RoomLocks) Lock(roomID chat.RoomID) func() {
	value, _ := l.locks.LoadOrStore(roomID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
