package websocket

import (
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"chat-rooms/mocks"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recorder struct {
	frames []outbound
}

func (r *recorder) Emit(event string, data any) error {
	r.frames = append(r.frames, outbound{Event: event, Data: data})
	return nil
}

func (r *recorder) last() outbound {
	return r.frames[len(r.frames)-1]
}

func envelope(event string, data any) Envelope {
	raw, _ := json.Marshal(data)
	return Envelope{Event: event, Data: raw}
}

func newSession(t *testing.T) (*Session, *mocks.MockIChatService, *recorder) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockIChatService(ctrl)
	out := &recorder{}
	return NewSession(logs.GetLoggerFromLevel(slog.LevelDebug), "c1", service, out), service, out
}

func identified(t *testing.T) (*Session, *mocks.MockIChatService, *recorder) {
	session, service, out := newSession(t)
	service.EXPECT().SetUsername(chat.ConnectionID("c1"), "alice").Return("alice", nil)
	session.Handle(context.Background(), envelope(EventSetUsername, "alice"))
	return session, service, out
}

func TestSession_SetUsername(t *testing.T) {
	req := require.New(t)
	session, service, out := newSession(t)
	service.EXPECT().SetUsername(chat.ConnectionID("c1"), " alice ").Return("alice", nil)

	session.Handle(context.Background(), envelope(EventSetUsername, " alice "))

	req.Equal(StateIdentified, session.State())
	req.Equal("alice", session.Identity())
	req.Equal(outbound{Event: EventUsernameSet, Data: "alice"}, out.last())
}

func TestSession_Rebinding_Keeps_Room(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	room := chat.NewRoom("r1", "Team")
	service.EXPECT().JoinChat(gomock.Any(), chat.ConnectionID("c1"), room.ID).Return(room, nil)
	service.EXPECT().SetUsername(chat.ConnectionID("c1"), "alicia").Return("alicia", nil)

	session.Handle(context.Background(), envelope(EventJoinChat, "r1"))
	session.Handle(context.Background(), envelope(EventSetUsername, "alicia"))

	req.Equal(StateInRoom, session.State())
	req.Equal(room.ID, session.CurrentRoom())
	req.Equal(outbound{Event: EventUsernameSet, Data: "alicia"}, out.last())
}

func TestSession_Requires_Identity(t *testing.T) {
	for _, evt := range []Envelope{
		envelope(EventCreateChat, "Team"),
		envelope(EventJoinChat, "r1"),
		envelope(EventSendMessage, SendMessagePayload{ChatID: "r1", Message: "hi"}),
	} {
		t.Run(evt.Event, func(t *testing.T) {
			req := require.New(t)
			session, _, out := newSession(t)

			session.Handle(context.Background(), evt)

			req.Equal(StateConnected, session.State())
			req.Equal(outbound{Event: EventError, Data: "Set a username first"}, out.last())
		})
	}
}

func TestSession_CreateChat_Enters_Room(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	room := chat.NewRoom("r1", "Team")
	service.EXPECT().CreateChat(gomock.Any(), chat.ConnectionID("c1"), "Team").Return(room, nil)

	session.Handle(context.Background(), envelope(EventCreateChat, "Team"))

	req.Equal(StateInRoom, session.State())
	req.Equal(room.ID, session.CurrentRoom())
	req.Equal(outbound{Event: EventChatCreated, Data: chat.Summary{ID: "r1", Name: "Team"}}, out.last())
}

func TestSession_JoinChat(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	room := chat.NewRoom("r1", "Team")
	room.Messages = []chat.Message{chat.NewMessage("bob", "hello")}
	service.EXPECT().JoinChat(gomock.Any(), chat.ConnectionID("c1"), room.ID).Return(room, nil)

	session.Handle(context.Background(), envelope(EventJoinChat, "r1"))

	req.Equal(StateInRoom, session.State())
	req.Equal(outbound{Event: EventChatJoined, Data: ChatJoinedPayload{
		ChatID: "r1", ChatName: "Team", Messages: []string{"bob: hello"},
	}}, out.last())
}

func TestSession_JoinChat_Unknown_Keeps_State(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	service.EXPECT().JoinChat(gomock.Any(), chat.ConnectionID("c1"), chat.RoomID("nope")).
		Return(chat.Room{}, errors.ErrNotFound)

	session.Handle(context.Background(), envelope(EventJoinChat, "nope"))

	req.Equal(StateIdentified, session.State())
	req.Equal(outbound{Event: EventError, Data: "Chat not found"}, out.last())
}

func TestSession_SendMessage(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	service.EXPECT().SendMessage(gomock.Any(), chat.ConnectionID("c1"), chat.RoomID("r1"), "hi").Return(nil)

	session.Handle(context.Background(), envelope(EventSendMessage, SendMessagePayload{ChatID: "r1", Message: "hi"}))

	// no direct reply: the echo arrives through the broadcast
	req.Len(out.frames, 1)
}

func TestSession_SendMessage_Not_Member(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	service.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.Detailed(errors.ErrInvalidState, "Join the chat before sending messages"))

	session.Handle(context.Background(), envelope(EventSendMessage, SendMessagePayload{ChatID: "r1", Message: "hi"}))

	req.Equal(outbound{Event: EventError, Data: "Join the chat before sending messages"}, out.last())
}

func TestSession_SendMessage_Malformed(t *testing.T) {
	req := require.New(t)
	session, _, out := identified(t)

	session.Handle(context.Background(), envelope(EventSendMessage, "just a string"))
	req.Equal(EventError, out.last().Event)

	session.Handle(context.Background(), envelope(EventSendMessage, SendMessagePayload{ChatID: "r1"}))
	req.Equal(outbound{Event: EventError, Data: "Expected {chatId, message}"}, out.last())
}

func TestSession_RemoveChat(t *testing.T) {
	req := require.New(t)
	session, service, out := identified(t)
	room := chat.NewRoom("r1", "Team")
	service.EXPECT().JoinChat(gomock.Any(), gomock.Any(), room.ID).Return(room, nil)
	service.EXPECT().LeaveChat(chat.ConnectionID("c1"), chat.RoomID("other"))
	service.EXPECT().LeaveChat(chat.ConnectionID("c1"), room.ID)

	session.Handle(context.Background(), envelope(EventJoinChat, "r1"))

	// Leaving another room keeps the current one
	session.Handle(context.Background(), envelope(EventRemoveChat, "other"))
	req.Equal(StateInRoom, session.State())
	req.Equal(outbound{Event: EventChatRemoved, Data: chat.RoomID("other")}, out.last())

	session.Handle(context.Background(), envelope(EventRemoveChat, "r1"))
	req.Equal(StateIdentified, session.State())
	req.Empty(session.CurrentRoom())
}

func TestSession_GetChats(t *testing.T) {
	req := require.New(t)
	session, service, out := newSession(t)
	summaries := []chat.Summary{{ID: "r1", Name: "Team"}}
	service.EXPECT().ListChats(gomock.Any()).Return(summaries, nil)

	session.Handle(context.Background(), Envelope{Event: EventGetChats})

	req.Equal(outbound{Event: EventChatList, Data: summaries}, out.last())
}

func TestSession_Unknown_Event(t *testing.T) {
	req := require.New(t)
	session, _, out := newSession(t)

	session.Handle(context.Background(), Envelope{Event: "dance"})

	req.Equal(outbound{Event: EventError, Data: `Unknown event "dance"`}, out.last())
}

func TestSession_Close_Is_Terminal(t *testing.T) {
	req := require.New(t)
	session, service, out := newSession(t)
	service.EXPECT().Disconnect(chat.ConnectionID("c1")).Times(1)

	session.Close()
	session.Close()
	session.Handle(context.Background(), envelope(EventSetUsername, "alice"))

	req.Equal(StateClosed, session.State())
	req.Empty(out.frames)
}
