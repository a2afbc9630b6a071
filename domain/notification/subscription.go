// Package notification defines push subscriptions and the payload delivered to them.
// The descriptor is opaque to the dispatcher; only the pusher interprets it.
package notification

import (
	"chat-rooms/domain/chat"
	"encoding/json"
)

type Keys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Subscription is a browser push endpoint bound to one identity.
type Subscription struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     Keys   `json:"keys" validate:"required"`
}

// Payload is what the client service worker reads: data.title and data.body.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewPayload(roomName string, message chat.Message) Payload {
	title := roomName
	if title == "" {
		title = "New message"
	}
	return Payload{Title: title, Body: message.Format()}
}

func (p Payload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

// Job is one pending delivery to one identity's subscription.
type Job struct {
	Identity     string
	RoomID       chat.RoomID
	Subscription Subscription
	Payload      []byte
}
