package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// RoomFinder resolves a room and its committed history.
type RoomFinder interface {
	Get(ctx context.Context, id chat.RoomID) (chat.Room, error)
}

type Set[K comparable] map[K]struct{}

type session struct {
	identity    string
	hasIdentity bool
	sink        contract.EventSink
	rooms       Set[chat.RoomID]
}

// Registry is the presence directory. It indexes membership in both directions
// so that a room's audience and a connection's rooms are each one lookup away.
// Both maps are guarded by the same lock and always change together.
type Registry struct {
	mu          sync.RWMutex
	finder      RoomFinder
	sessions    map[chat.ConnectionID]*session
	roomMembers map[chat.RoomID]Set[chat.ConnectionID]
}

func NewRegistry(finder RoomFinder) *Registry {
	return &Registry{
		finder:      finder,
		sessions:    make(map[chat.ConnectionID]*session),
		roomMembers: make(map[chat.RoomID]Set[chat.ConnectionID]),
	}
}

// Attach registers a live connection and the sink its events are written to.
func (r *Registry) Attach(connID chat.ConnectionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[connID]; ok {
		return
	}
	r.sessions[connID] = &session{sink: sink, rooms: make(Set[chat.RoomID])}
}

// SetIdentity binds or rebinds the display name of a connection.
func (r *Registry) SetIdentity(connID chat.ConnectionID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connID]; ok {
		s.identity, s.hasIdentity = name, true
	}
}

func (r *Registry) Identity(connID chat.ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	if !ok || !s.hasIdentity {
		return "", false
	}
	return s.identity, true
}

// Join resolves the room first, then records membership.
// An unknown room leaves the registry untouched. Joining twice is a no-op.
func (r *Registry) Join(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID) (chat.Room, error) {
	room, err := r.finder.Get(ctx, roomID)
	if err != nil {
		return chat.Room{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return chat.Room{}, fmt.Errorf("%w: connection %s", errors.ErrConnectionClosed, connID)
	}
	s.rooms[roomID] = struct{}{}
	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set[chat.ConnectionID])
	}
	r.roomMembers[roomID][connID] = struct{}{}
	return room, nil
}

// Leave removes one membership. Unknown connections or rooms are ignored.
func (r *Registry) Leave(connID chat.ConnectionID, roomID chat.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connID]; ok {
		delete(s.rooms, roomID)
	}
	r.removeMember(connID, roomID)
}

func (r *Registry) IsMember(connID chat.ConnectionID, roomID chat.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roomMembers[roomID][connID]
	return ok
}

func (r *Registry) Rooms(connID chat.ConnectionID) []chat.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	return lo.Keys(s.rooms)
}

// Members returns a snapshot of the live connections of a room.
// Returns nil if the room has no members.
func (r *Registry) Members(roomID chat.RoomID) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	res := make([]contract.Member, 0, len(members))
	for connID := range members {
		if s, exists := r.sessions[connID]; exists {
			res = append(res, contract.Member{ConnectionID: connID, Identity: s.identity, Sink: s.sink})
		}
	}
	return res
}

// Identities returns the distinct display names present in a room.
// Connections that never declared a name are skipped.
func (r *Registry) Identities(roomID chat.RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for connID := range r.roomMembers[roomID] {
		if s, ok := r.sessions[connID]; ok && s.hasIdentity {
			names = append(names, s.identity)
		}
	}
	return lo.Uniq(names)
}

// Disconnect releases every entry held by the connection.
// It reports whether anything was released, so only the first call acts.
func (r *Registry) Disconnect(connID chat.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return false
	}
	for roomID := range s.rooms {
		r.removeMember(connID, roomID)
	}
	delete(r.sessions, connID)
	return true
}

// removeMember must be called with the write lock held.
// Empty rooms are dropped from the index.
func (r *Registry) removeMember(connID chat.ConnectionID, roomID chat.RoomID) {
	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}
