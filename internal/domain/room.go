package domain

import "time"

type (
	RoomName string
	RoomID   string
	RoomKind string
)

const (
	RoomPublic  RoomKind = "public"
	RoomPrivate RoomKind = "private"
)

type Room struct {
	ID           RoomID
	Name         RoomName
	Kind         RoomKind
	PasswordHash []byte
	CreatedBy    string
	CreatedAt    time.Time
}

func (r *Room) IsPrivate() bool { return r.Kind == RoomPrivate }

// RoomInfo is the room discovery row.
type RoomInfo struct {
	ID          RoomID   `json:"id"`
	Name        RoomName `json:"name"`
	MemberCount int      `json:"userCount"`
	Kind        RoomKind `json:"kind"`
}
