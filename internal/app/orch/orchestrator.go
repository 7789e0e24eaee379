// Package orch drives the per-connection state machine:
// Unjoined -> Joined(room) -> Joined(room') -> Disconnected.
//
// Every command runs under one coarse lock, so membership, sessions and
// histories are always observed in a consistent state. Broadcasts happen
// after the state change they announce, still under the lock, which keeps
// event order per room identical to command order.
package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/dialnet/internal/app"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultHistoryReplay = 50

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Policy   app.Policy
	Events   *app.Broadcaster
	Metrics  *app.Metrics

	// HistoryReplay is how many recent messages a joining connection receives.
	HistoryReplay int

	mu        sync.Mutex
	lastMsgID int64
	now       func() time.Time
}

// Command is one of JoinCommand, SendCommand or DisconnectCommand.
type Command interface{ command() }

type JoinCommand struct {
	SID      core.SessionID
	Origin   core.Origin
	Username string
	Room     domain.RoomID
	Password string
	Profile  domain.Profile
}

type SendCommand struct {
	SID  core.SessionID
	Text string
}

type DisconnectCommand struct {
	SID core.SessionID
}

func (JoinCommand) command()       {}
func (SendCommand) command()       {}
func (DisconnectCommand) command() {}

// Execute is the single entry point for transport commands.
func (o *Orchestrator) Execute(cmd Command) error {
	switch c := cmd.(type) {
	case JoinCommand:
		return o.Join(c)
	case SendCommand:
		o.Send(c.SID, c.Text)
	case DisconnectCommand:
		o.Disconnect(c.SID)
	default:
		log.Warn().Str("module", "orch").Msgf("unknown command %T", cmd)
	}
	return nil
}

// Connect registers a live transport. Nothing is joined yet.
func (o *Orchestrator) Connect(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Attach(sid, sig, cancel)
}

// Release runs the disconnect sequence and forgets the transport.
func (o *Orchestrator) Release(sid core.SessionID) {
	o.Disconnect(sid)
	o.Registry.Detach(sid)
}

func (o *Orchestrator) ListRooms() []domain.RoomInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Rooms.List()
}

func (o *Orchestrator) CreatePrivateRoom(name, password, creator string) (domain.RoomID, error) {
	id, err := o.Rooms.CreatePrivateRoom(name, password, creator)
	if err != nil {
		return "", err
	}
	o.refreshGauges()
	return id, nil
}

// ExpireIdleRooms drops private rooms that stayed empty for longer than ttl.
// It holds the coarse lock so a join cannot add a member to a room being reaped.
func (o *Orchestrator) ExpireIdleRooms(ttl time.Duration) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	expired := o.Rooms.ExpireEmpty(o.clock(), ttl)
	if len(expired) > 0 {
		o.refreshGauges()
	}
	return len(expired)
}

// RunRoomJanitor calls ExpireIdleRooms every interval until ctx is done.
func (o *Orchestrator) RunRoomJanitor(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := o.ExpireIdleRooms(ttl); n > 0 {
				log.Info().Str("module", "orch").Int("expired", n).Msg("room janitor pass")
			}
		}
	}
}

// publish broadcasts ev and hands members that could not keep up to the policy.
func (o *Orchestrator) publish(room core.RoomService, except core.SessionID, ev core.Event) {
	res := o.Events.BroadcastToRoom(room, except, ev)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow)).Str("room", string(room.Room().ID)).Msg("kicking slow member")
			o.Registry.Cancel(slow)
		case app.NoAction:
		}
	}
}

func (o *Orchestrator) replay() int {
	if o.HistoryReplay <= 0 {
		return DefaultHistoryReplay
	}
	return o.HistoryReplay
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o *Orchestrator) refreshGauges() {
	if o.Metrics == nil {
		return
	}
	o.Metrics.Sessions.Set(float64(o.Registry.Count()))
	o.Metrics.PrivateRooms.Set(float64(o.Rooms.PrivateCount()))
}
