package core

import (
	"github.com/dkeye/dialnet/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// RoomService is the core-facing API of a room.
// It owns the membership set and the message history but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	MemberNames() []string
	HasMember(sid SessionID) bool

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID) (MemberSession, bool)

	Append(msg domain.Message) domain.Message
	Recent(n int) []domain.Message

	Broadcast(except SessionID, data Frame) PublishResult
}
