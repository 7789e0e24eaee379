package app

import (
	"context"
	"sync"

	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session is the per-connection record of a joined client.
type Session struct {
	Room     domain.RoomID
	Username string
	Profile  domain.Profile
	Origin   core.Origin
}

type connEntry struct {
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// Registry is the session table: live transports, joined sessions and the
// origin index. It enforces no cross-field invariants; the orchestrator does.
type Registry struct {
	mu       sync.RWMutex
	conns    map[core.SessionID]*connEntry
	sessions map[core.SessionID]Session
	origins  map[core.Origin]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[core.SessionID]*connEntry),
		sessions: make(map[core.SessionID]Session),
		origins:  make(map[core.Origin]core.SessionID),
	}
}

// Attach records a live transport for sid. cancel terminates it.
func (r *Registry) Attach(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &connEntry{Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("attached signal")
}

func (r *Registry) Detach(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("detached signal")
}

func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[sid]; ok {
		return e.Signal, true
	}
	return nil, false
}

func (r *Registry) IsLive(sid core.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[sid]
	return ok
}

// Cancel terminates the transport of sid, if any.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.conns[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Put(sid core.SessionID, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = s
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(s.Room)).Msg("bound session")
}

func (r *Registry) Get(sid core.SessionID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	return s, ok
}

func (r *Registry) Remove(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// BindOrigin points origin at sid, replacing any previous owner.
func (r *Registry) BindOrigin(origin core.Origin, sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origins[origin] = sid
}

func (r *Registry) OriginOwner(origin core.Origin) (core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.origins[origin]
	return sid, ok
}

// UnbindOrigin drops the origin entry only if it still points at sid.
func (r *Registry) UnbindOrigin(origin core.Origin, sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.origins[origin]; ok && cur == sid {
		delete(r.origins, origin)
	}
}
