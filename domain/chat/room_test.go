package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoom_Record_Formats_Messages_In_Order(t *testing.T) {
	req := require.New(t)
	room := NewRoom("room-1", "Team")
	room.Messages = []Message{
		{Sender: "Alice", Body: "hi", Seq: 1},
		{Sender: "Bob", Body: "hello: there", Seq: 2},
	}

	record := room.Record()

	req.Equal(RoomID("room-1"), record.ID)
	req.Equal("Team", record.Name)
	req.Equal([]string{"Alice: hi", "Bob: hello: there"}, record.Messages)
	req.Equal(Summary{ID: "room-1", Name: "Team"}, room.Summary())
}

func TestRoom_History_Empty(t *testing.T) {
	require.Empty(t, NewRoom("r", "empty").History())
}
