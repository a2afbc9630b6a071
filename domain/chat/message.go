package chat

import "fmt"

// Message is immutable once committed.
// Seq is its 1-based position in the room log, assigned by the store on append.
type Message struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
	Seq    int64  `json:"seq"`
}

func NewMessage(sender, body string) Message {
	return Message{Sender: sender, Body: body}
}

// Format renders the wire form "sender: body".
func (m Message) Format() string {
	return fmt.Sprintf("%s: %s", m.Sender, m.Body)
}
