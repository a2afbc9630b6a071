// Package runtime wires presence, broadcast and notification around the chat store.
// It sequences side effects without containing protocol rules.
package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain/chat"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"chat-rooms/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Orchestrator serializes every state change of a room behind that room's lock:
// append then broadcast for a post, history read then membership insert for a join.
// A joiner therefore sees each message exactly once, either in its history or live.
type Orchestrator struct {
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	chatRepository repositories.IChatRepository
	broadcaster    *Broadcaster
	dispatcher     *Dispatcher
	monitoring     *observability.MonitoringManager
	locks          RoomLocks
	names          sync.Map // chat.RoomID -> room name
	extraWorkers   []contract.Worker
	done           chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, chatRepository repositories.IChatRepository,
	broadcaster *Broadcaster, dispatcher *Dispatcher,
	monitoring *observability.MonitoringManager) *Orchestrator {
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		registry:       registry,
		chatRepository: chatRepository,
		broadcaster:    broadcaster,
		dispatcher:     dispatcher,
		monitoring:     monitoring,
	}
}

// Add registers background workers started alongside the push workers.
func (o *Orchestrator) Add(w ...contract.Worker) {
	o.extraWorkers = append(o.extraWorkers, w...)
}

func (o *Orchestrator) Connect(connID chat.ConnectionID, sink contract.EventSink) {
	o.registry.Attach(connID, sink)
	o.monitoring.ConnectionOpened()
	o.log.Debug("Connection attached", "connection_id", connID)
}

func (o *Orchestrator) SetIdentity(connID chat.ConnectionID, name string) {
	o.registry.SetIdentity(connID, name)
}

func (o *Orchestrator) Identity(connID chat.ConnectionID) (string, bool) {
	return o.registry.Identity(connID)
}

// CreateRoom persists a new room and joins its creator to it.
func (o *Orchestrator) CreateRoom(ctx context.Context, connID chat.ConnectionID, name string) (chat.Room, error) {
	room, err := o.chatRepository.Create(ctx, name)
	if err != nil {
		o.log.Error("Room creation failed", "connection_id", connID, "error", err)
		return chat.Room{}, err
	}
	o.monitoring.IncrRoomsCreated()
	o.log.Info("Room created", "room_id", room.ID, "name", name)
	return o.JoinRoom(ctx, connID, room.ID)
}

// JoinRoom returns the room with its full committed history.
func (o *Orchestrator) JoinRoom(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID) (chat.Room, error) {
	unlock := o.locks.Lock(roomID)
	defer unlock()

	room, err := o.registry.Join(ctx, connID, roomID)
	if err != nil {
		return chat.Room{}, err
	}
	o.names.Store(roomID, room.Name)
	return room, nil
}

func (o *Orchestrator) LeaveRoom(connID chat.ConnectionID, roomID chat.RoomID) {
	o.registry.Leave(connID, roomID)
}

func (o *Orchestrator) IsMember(connID chat.ConnectionID, roomID chat.RoomID) bool {
	return o.registry.IsMember(connID, roomID)
}

func (o *Orchestrator) ListRooms(ctx context.Context) ([]chat.Summary, error) {
	return o.chatRepository.ListAll(ctx)
}

// PostMessage commits the message, broadcasts it live, then queues push notifications.
// Nothing is broadcast when the append fails.
func (o *Orchestrator) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	sender, ok := o.registry.Identity(cmd.ConnectionID)
	if !ok {
		return chat.Message{}, errors.Detailed(errors.ErrInvalidState, "Set a username first")
	}
	if !o.registry.IsMember(cmd.ConnectionID, cmd.RoomID()) {
		return chat.Message{}, errors.Detailed(errors.ErrInvalidState, "Join the chat before sending messages")
	}

	evt, err := o.commit(ctx, cmd, sender)
	if err != nil {
		return chat.Message{}, err
	}
	o.monitoring.IncrMessagesPosted()
	o.dispatcher.Notify(ctx, evt)
	return evt.Message, nil
}

func (o *Orchestrator) commit(ctx context.Context, cmd chat.PostMessageCommand, sender string) (event.MessagePosted, error) {
	unlock := o.locks.Lock(cmd.RoomID())
	defer unlock()

	committed, err := o.chatRepository.AppendMessage(ctx, cmd.RoomID(), chat.NewMessage(sender, cmd.Content))
	if err != nil {
		o.log.Error("Message append failed", "room_id", cmd.RoomID(), "connection_id", cmd.ConnectionID, "error", err)
		return event.MessagePosted{}, err
	}
	evt := event.MessagePosted{
		Room:     cmd.RoomID(),
		RoomName: o.roomName(cmd.RoomID()),
		Message:  committed,
	}
	o.broadcaster.Broadcast(ctx, evt)
	return evt, nil
}

func (o *Orchestrator) roomName(roomID chat.RoomID) string {
	if name, ok := o.names.Load(roomID); ok {
		return name.(string)
	}
	return ""
}

// Disconnect releases every registry entry of the connection. Safe to call twice.
func (o *Orchestrator) Disconnect(connID chat.ConnectionID) {
	if o.registry.Disconnect(connID) {
		o.monitoring.ConnectionClosed()
		o.log.Debug("Connection released", "connection_id", connID)
	}
}

// Start registers pushWorkers delivery workers and the extra workers on the
// supervisor, then runs it in the background until Stop or ctx cancellation.
func (o *Orchestrator) Start(ctx context.Context, pushWorkers int, pusher contract.Pusher,
	subscriptions repositories.ISubscriptionRepository, pushTimeout time.Duration) error {
	if pushWorkers < 1 {
		return fmt.Errorf("%w: at least one push worker is required", errors.ErrInvalidState)
	}
	for i := 0; i < pushWorkers; i++ {
		o.supervisor.Add(workers.NewPushWorker(o.log, pusher, subscriptions, o.monitoring,
			o.dispatcher.Jobs(), pushTimeout))
	}
	o.supervisor.Add(o.extraWorkers...)

	o.log.Info("Starting orchestrator and all supervised workers", "push_workers", pushWorkers)
	o.done = make(chan struct{})
	go func() {
		defer close(o.done)
		o.supervisor.Run(ctx)
	}()
	return nil
}

// Stop cancels the supervised workers and waits for them to return,
// so no worker touches a store after Stop. Queued push jobs are abandoned.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	if o.done != nil {
		<-o.done
	}
	o.log.Info("Supervised workers stopped")
}
