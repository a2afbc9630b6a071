package websocket

import (
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"chat-rooms/services"
	"context"
	"fmt"
	"log/slog"
)

type State int

const (
	StateConnected State = iota
	StateIdentified
	StateInRoom
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateInRoom:
		return "in_room"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Emitter writes one server event to the connection this session belongs to.
type Emitter interface {
	Emit(event string, data any) error
}

var errIdentityRequired = errors.Detailed(errors.ErrInvalidState, "Set a username first")

// Session is the per-connection protocol state machine.
// It is driven by a single read loop, so it needs no locking of its own.
type Session struct {
	log      *slog.Logger
	id       chat.ConnectionID
	service  services.IChatService
	out      Emitter
	state    State
	identity string
	current  chat.RoomID
}

func NewSession(log *slog.Logger, id chat.ConnectionID, service services.IChatService, out Emitter) *Session {
	return &Session{
		log:     log.With("connection_id", id),
		id:      id,
		service: service,
		out:     out,
		state:   StateConnected,
	}
}

func (s *Session) State() State             { return s.state }
func (s *Session) Identity() string         { return s.identity }
func (s *Session) CurrentRoom() chat.RoomID { return s.current }

// Handle processes one client event. Failures are reported to this connection only.
func (s *Session) Handle(ctx context.Context, envelope Envelope) {
	if s.state == StateClosed {
		return
	}
	if err := s.dispatch(ctx, envelope); err != nil {
		s.log.Debug("Request rejected", "event", envelope.Event, "error", err)
		s.fail(err)
	}
}

func (s *Session) dispatch(ctx context.Context, envelope Envelope) error {
	switch envelope.Event {
	case EventSetUsername:
		return s.setUsername(envelope)
	case EventCreateChat:
		return s.createChat(ctx, envelope)
	case EventJoinChat:
		return s.joinChat(ctx, envelope)
	case EventSendMessage:
		return s.sendMessage(ctx, envelope)
	case EventRemoveChat:
		return s.removeChat(envelope)
	case EventGetChats:
		return s.getChats(ctx)
	default:
		return errors.Detailed(errors.ErrInvalidPayload, fmt.Sprintf("Unknown event %q", envelope.Event))
	}
}

func (s *Session) setUsername(envelope Envelope) error {
	name, err := decodeString(envelope.Data)
	if err != nil {
		return err
	}
	name, err = s.service.SetUsername(s.id, name)
	if err != nil {
		return err
	}
	s.identity = name
	if s.state == StateConnected {
		s.state = StateIdentified
	}
	return s.out.Emit(EventUsernameSet, name)
}

func (s *Session) createChat(ctx context.Context, envelope Envelope) error {
	if s.state == StateConnected {
		return errIdentityRequired
	}
	name, err := decodeString(envelope.Data)
	if err != nil {
		return err
	}
	room, err := s.service.CreateChat(ctx, s.id, name)
	if err != nil {
		return err
	}
	s.enter(room.ID)
	s.log.Info("Chat created", "room_id", room.ID)
	return s.out.Emit(EventChatCreated, room.Summary())
}

func (s *Session) joinChat(ctx context.Context, envelope Envelope) error {
	if s.state == StateConnected {
		return errIdentityRequired
	}
	id, err := decodeString(envelope.Data)
	if err != nil {
		return err
	}
	room, err := s.service.JoinChat(ctx, s.id, chat.RoomID(id))
	if err != nil {
		return err
	}
	s.enter(room.ID)
	return s.out.Emit(EventChatJoined, newChatJoined(room))
}

func (s *Session) sendMessage(ctx context.Context, envelope Envelope) error {
	if s.state == StateConnected {
		return errIdentityRequired
	}
	payload, err := decodeSendMessage(envelope.Data)
	if err != nil {
		return err
	}
	// The echo to the sender arrives through the broadcast.
	return s.service.SendMessage(ctx, s.id, chat.RoomID(payload.ChatID), payload.Message)
}

func (s *Session) removeChat(envelope Envelope) error {
	id, err := decodeString(envelope.Data)
	if err != nil {
		return err
	}
	roomID := chat.RoomID(id)
	s.service.LeaveChat(s.id, roomID)
	if s.state == StateInRoom && s.current == roomID {
		s.state, s.current = StateIdentified, ""
	}
	return s.out.Emit(EventChatRemoved, roomID)
}

func (s *Session) getChats(ctx context.Context) error {
	summaries, err := s.service.ListChats(ctx)
	if err != nil {
		return err
	}
	return s.out.Emit(EventChatList, summaries)
}

// Close is terminal; the registry is released exactly once.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.service.Disconnect(s.id)
	s.log.Debug("Session closed")
}

func (s *Session) enter(roomID chat.RoomID) {
	s.state, s.current = StateInRoom, roomID
}

func (s *Session) fail(err error) {
	if emitErr := s.out.Emit(EventError, errors.Reason(err)); emitErr != nil {
		s.log.Debug("Could not report error to client", "error", emitErr)
	}
}
