package app

import "github.com/dkeye/dialnet/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction {
	return KickMember
}

// TolerantPolicy keeps slow members; they just miss the events.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(core.RoomService, core.SessionID) BackpressureAction {
	return NoAction
}
