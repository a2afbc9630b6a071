// Package websocket carries the chat protocol over gorilla/websocket.
// Every frame is a JSON envelope {"event": <name>, "data": <payload>}.
package websocket

import (
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Client -> server events.
const (
	EventSetUsername = "setUsername"
	EventCreateChat  = "createChat"
	EventJoinChat    = "joinChat"
	EventSendMessage = "sendMessage"
	EventRemoveChat  = "removeChat"
	EventGetChats    = "getChats"
)

// Server -> client events.
const (
	EventUsernameSet = "usernameSet"
	EventChatCreated = "chatCreated"
	EventChatJoined  = "chatJoined"
	EventChatList    = "chatList"
	EventNewMessage  = "newMessage"
	EventChatRemoved = "chatRemoved"
	EventError       = "error"
)

type Envelope struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type SendMessagePayload struct {
	ChatID  string `json:"chatId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type ChatJoinedPayload struct {
	ChatID   chat.RoomID `json:"chatId"`
	ChatName string      `json:"chatName"`
	Messages []string    `json:"messages"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

func decodeEnvelope(raw []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Envelope{}, errors.Detailed(errors.ErrInvalidPayload, "Malformed frame")
	}
	if err := validate.Struct(envelope); err != nil {
		return Envelope{}, errors.Detailed(errors.ErrInvalidPayload, "Missing event name")
	}
	return envelope, nil
}

// decodeString accepts the bare-string payloads of setUsername, createChat, joinChat and removeChat.
func decodeString(data json.RawMessage) (string, error) {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", errors.Detailed(errors.ErrInvalidPayload, "Expected a string payload")
	}
	return value, nil
}

func decodeSendMessage(data json.RawMessage) (SendMessagePayload, error) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return SendMessagePayload{}, errors.Detailed(errors.ErrInvalidPayload, "Expected {chatId, message}")
	}
	payload.ChatID = strings.TrimSpace(payload.ChatID)
	if err := validate.Struct(payload); err != nil {
		return SendMessagePayload{}, errors.Detailed(errors.ErrInvalidPayload, "Expected {chatId, message}")
	}
	return payload, nil
}

func newChatJoined(room chat.Room) ChatJoinedPayload {
	messages := room.History()
	if messages == nil {
		messages = []string{}
	}
	return ChatJoinedPayload{ChatID: room.ID, ChatName: room.Name, Messages: messages}
}
