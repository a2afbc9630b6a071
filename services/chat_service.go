//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-rooms/contract"
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"chat-rooms/runtime"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type IChatService interface {
	Connect(connID chat.ConnectionID, sink contract.EventSink)
	SetUsername(connID chat.ConnectionID, name string) (string, error)
	CreateChat(ctx context.Context, connID chat.ConnectionID, name string) (chat.Room, error)
	JoinChat(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID) (chat.Room, error)
	SendMessage(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID, content string) error
	LeaveChat(connID chat.ConnectionID, roomID chat.RoomID)
	ListChats(ctx context.Context) ([]chat.Summary, error)
	Disconnect(connID chat.ConnectionID)
}

// Limits bound the size of client-provided text, counted in runes.
type Limits struct {
	MaxNameLength    int
	MaxMessageLength int
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
	limits       Limits
}

func NewChatService(o *runtime.Orchestrator, limits Limits) *ChatService {
	return &ChatService{orchestrator: o, limits: limits}
}

func (s *ChatService) Connect(connID chat.ConnectionID, sink contract.EventSink) {
	s.orchestrator.Connect(connID, sink)
}

// SetUsername binds the trimmed display name and returns it.
func (s *ChatService) SetUsername(connID chat.ConnectionID, name string) (string, error) {
	name, err := s.validName("Username", name)
	if err != nil {
		return "", err
	}
	s.orchestrator.SetIdentity(connID, name)
	return name, nil
}

func (s *ChatService) CreateChat(ctx context.Context, connID chat.ConnectionID, name string) (chat.Room, error) {
	name, err := s.validName("Chat name", name)
	if err != nil {
		return chat.Room{}, err
	}
	room, err := s.orchestrator.CreateRoom(ctx, connID, name)
	return room, storeFailure(err, "Chat could not be created")
}

func (s *ChatService) JoinChat(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID) (chat.Room, error) {
	if strings.TrimSpace(roomID.String()) == "" {
		return chat.Room{}, errors.Detailed(errors.ErrInvalidPayload, "Chat id is required")
	}
	return s.orchestrator.JoinRoom(ctx, connID, roomID)
}

func (s *ChatService) SendMessage(ctx context.Context, connID chat.ConnectionID, roomID chat.RoomID, content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.Detailed(errors.ErrInvalidPayload, "Message is empty")
	}
	if utf8.RuneCountInString(content) > s.limits.MaxMessageLength {
		return errors.Detailed(errors.ErrInvalidPayload,
			fmt.Sprintf("Message is longer than %d characters", s.limits.MaxMessageLength))
	}
	_, err := s.orchestrator.PostMessage(ctx, chat.PostMessageCommand{
		Room:         roomID,
		ConnectionID: connID,
		Content:      content,
	})
	return storeFailure(err, "Message could not be saved")
}

// storeFailure gives a store error the client text of the operation that hit it.
func storeFailure(err error, detail string) error {
	if stderrors.Is(err, errors.ErrStoreFailure) {
		return errors.Detailed(errors.ErrStoreFailure, detail)
	}
	return err
}

func (s *ChatService) LeaveChat(connID chat.ConnectionID, roomID chat.RoomID) {
	s.orchestrator.LeaveRoom(connID, roomID)
}

// ListChats never returns a nil slice so the catalogue always encodes as a JSON array.
func (s *ChatService) ListChats(ctx context.Context) ([]chat.Summary, error) {
	summaries, err := s.orchestrator.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []chat.Summary{}
	}
	return summaries, nil
}

func (s *ChatService) Disconnect(connID chat.ConnectionID) {
	s.orchestrator.Disconnect(connID)
}

func (s *ChatService) validName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Detailed(errors.ErrInvalidPayload, field+" is required")
	}
	if utf8.RuneCountInString(name) > s.limits.MaxNameLength {
		return "", errors.Detailed(errors.ErrInvalidPayload,
			fmt.Sprintf("%s is longer than %d characters", field, s.limits.MaxNameLength))
	}
	return name, nil
}
