package core

import "github.com/dkeye/dialnet/internal/domain"

type SessionID string

// Origin identifies where a connection comes from (network address or client token).
// At most one live connection is accepted per origin.
type Origin string

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}
