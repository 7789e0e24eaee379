package core

import (
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/goccy/go-json"
)

type EventType string

// Server to client events.
const (
	EventRoomMessages EventType = "room-messages"
	EventNewMessage   EventType = "new-message"
	EventUserJoined   EventType = "user-joined"
	EventUserLeft     EventType = "user-left"
	EventUsersList    EventType = "users-list"
	EventJoinError    EventType = "join-error"
	EventRoomJoined   EventType = "room-joined"
	EventPong         EventType = "pong"
)

// Event is the outbound envelope: {"type": ..., "data": ...}.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

func (e Event) Encode() (Frame, error) {
	return json.Marshal(e)
}

type PresencePayload struct {
	Username  string `json:"username"`
	UserCount int    `json:"userCount"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type RoomJoinedPayload struct {
	Room domain.RoomID   `json:"room"`
	Name domain.RoomName `json:"name"`
	Kind domain.RoomKind `json:"kind"`
}

func RoomMessages(msgs []domain.Message) Event {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return Event{Type: EventRoomMessages, Data: msgs}
}

func NewMessage(msg domain.Message) Event { return Event{Type: EventNewMessage, Data: msg} }

func UserJoined(username string, count int) Event {
	return Event{Type: EventUserJoined, Data: PresencePayload{Username: username, UserCount: count}}
}

func UserLeft(username string, count int) Event {
	return Event{Type: EventUserLeft, Data: PresencePayload{Username: username, UserCount: count}}
}

func UsersList(names []string) Event {
	if names == nil {
		names = []string{}
	}
	return Event{Type: EventUsersList, Data: names}
}

func JoinError(message string) Event {
	return Event{Type: EventJoinError, Data: ErrorPayload{Message: message}}
}

func RoomJoined(room *domain.Room) Event {
	return Event{Type: EventRoomJoined, Data: RoomJoinedPayload{Room: room.ID, Name: room.Name, Kind: room.Kind}}
}

func Pong() Event { return Event{Type: EventPong} }
