package runtime

import (
	"chat-rooms/domain/chat"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"chat-rooms/repositories"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	mu     sync.Mutex
	events []event.MessagePosted
	err    error
}

func (s *Sink) Consume(_ context.Context, e event.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e.(event.MessagePosted))
	return nil
}

func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.events, func(e event.MessagePosted, _ int) string { return e.Message.Format() })
}

func newConnectionID() chat.ConnectionID { return chat.ConnectionID(uuid.NewString()) }

func newRegistryWithRoom(t *testing.T, name string) (*Registry, chat.Room) {
	repository := repositories.NewMemoryChatRepository()
	room, err := repository.Create(context.Background(), name)
	require.NoError(t, err)
	return NewRegistry(repository), room
}

func TestRegistry_Join_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry, room := newRegistryWithRoom(t, "general")
	connID := newConnectionID()
	sink := &Sink{}

	// Given a connected participant
	registry.Attach(connID, sink)
	registry.SetIdentity(connID, "alice")

	// When the participant joins a room
	joined, err := registry.Join(context.Background(), connID, room.ID)

	// Then both directions of the index are updated
	req.NoError(err)
	req.Equal(room.ID, joined.ID)
	req.True(registry.IsMember(connID, room.ID))
	req.Equal([]chat.RoomID{room.ID}, registry.Rooms(connID))
	members := registry.Members(room.ID)
	req.Len(members, 1)
	req.Equal(connID, members[0].ConnectionID)
	req.Equal("alice", members[0].Identity)
	req.Same(sink, members[0].Sink)
}

func TestRegistry_Join_Unknown_Room_Leaves_Registry_Untouched(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryWithRoom(t, "general")
	connID := newConnectionID()
	registry.Attach(connID, &Sink{})

	_, err := registry.Join(context.Background(), connID, "missing")

	req.ErrorIs(err, errors.ErrNotFound)
	req.Empty(registry.Rooms(connID))
	req.Nil(registry.Members("missing"))
	req.Empty(registry.roomMembers)
}

func TestRegistry_Join_Twice_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry, room := newRegistryWithRoom(t, "general")
	connID := newConnectionID()
	registry.Attach(connID, &Sink{})

	_, err := registry.Join(context.Background(), connID, room.ID)
	req.NoError(err)
	_, err = registry.Join(context.Background(), connID, room.ID)
	req.NoError(err)

	req.Len(registry.Members(room.ID), 1)
	req.Len(registry.Rooms(connID), 1)
}

func TestRegistry_Join_Detached_Connection(t *testing.T) {
	req := require.New(t)
	registry, room := newRegistryWithRoom(t, "general")

	_, err := registry.Join(context.Background(), newConnectionID(), room.ID)
	req.ErrorIs(err, errors.ErrConnectionClosed)
	req.Nil(registry.Members(room.ID))
}

func TestRegistry_Leave(t *testing.T) {
	req := require.New(t)
	registry, room := newRegistryWithRoom(t, "general")
	first, second := newConnectionID(), newConnectionID()
	sink := &Sink{}
	registry.Attach(first, &Sink{})
	registry.Attach(second, sink)
	_, err := registry.Join(context.Background(), first, room.ID)
	req.NoError(err)
	_, err = registry.Join(context.Background(), second, room.ID)
	req.NoError(err)

	// When a participant leaves
	registry.Leave(first, room.ID)

	// Then only one participant left
	req.False(registry.IsMember(first, room.ID))
	req.Len(registry.Members(room.ID), 1)
	req.Same(sink, registry.Members(room.ID)[0].Sink)

	// And leaving again, or leaving a room never joined, is tolerated
	registry.Leave(first, room.ID)
	registry.Leave(first, "never-joined")
	registry.Leave(newConnectionID(), room.ID)
	req.Len(registry.Members(room.ID), 1)

	// And the room entry disappears with its last member
	registry.Leave(second, room.ID)
	req.Empty(registry.roomMembers)
}

func TestRegistry_Identity_Rebinding(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistryWithRoom(t, "general")
	connID := newConnectionID()
	registry.Attach(connID, &Sink{})

	_, ok := registry.Identity(connID)
	req.False(ok)

	registry.SetIdentity(connID, "alice")
	registry.SetIdentity(connID, "alice")
	name, ok := registry.Identity(connID)
	req.True(ok)
	req.Equal("alice", name)

	registry.SetIdentity(connID, "alicia")
	name, _ = registry.Identity(connID)
	req.Equal("alicia", name)
}

func TestRegistry_Identities_Are_Deduplicated(t *testing.T) {
	req := require.New(t)
	registry, room := newRegistryWithRoom(t, "general")
	ctx := context.Background()

	for _, name := range []string{"alice", "alice", "bob", ""} {
		connID := newConnectionID()
		registry.Attach(connID, &Sink{})
		if name != "" {
			registry.SetIdentity(connID, name)
		}
		_, err := registry.Join(ctx, connID, room.ID)
		req.NoError(err)
	}

	req.ElementsMatch([]string{"alice", "bob"}, registry.Identities(room.ID))
	req.Len(registry.Members(room.ID), 4)
}

func TestRegistry_Disconnect_Releases_Everything_Once(t *testing.T) {
	req := require.New(t)
	repository := repositories.NewMemoryChatRepository()
	ctx := context.Background()
	first, err := repository.Create(ctx, "first")
	req.NoError(err)
	second, err := repository.Create(ctx, "second")
	req.NoError(err)
	registry := NewRegistry(repository)

	connID := newConnectionID()
	registry.Attach(connID, &Sink{})
	registry.SetIdentity(connID, "alice")
	_, err = registry.Join(ctx, connID, first.ID)
	req.NoError(err)
	_, err = registry.Join(ctx, connID, second.ID)
	req.NoError(err)

	req.True(registry.Disconnect(connID))
	req.False(registry.Disconnect(connID))

	req.Empty(registry.sessions)
	req.Empty(registry.roomMembers)
	_, ok := registry.Identity(connID)
	req.False(ok)
}
