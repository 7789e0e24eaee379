package orch

import (
	"fmt"

	"github.com/dkeye/dialnet/internal/app"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join moves the connection into cmd.Room. On error nothing changes.
func (o *Orchestrator) Join(cmd JoinCommand) error {
	member, err := domain.NewMember(cmd.Username, cmd.Profile)
	if err != nil {
		o.countJoin("invalid")
		return fmt.Errorf("join: %w: %w", domain.ErrInvalidArgument, err)
	}

	// Password hashes are immutable, so the slow comparison stays outside the lock.
	res := o.Rooms.Resolve(cmd.Room)
	if !res.Found() {
		o.countJoin("not_found")
		return fmt.Errorf("join %q: %w", cmd.Room, domain.ErrRoomNotFound)
	}
	if !o.Rooms.Authorize(res.Room.Room(), cmd.Password) {
		o.countJoin("invalid_credentials")
		return fmt.Errorf("join %q: %w", cmd.Room, domain.ErrInvalidCredentials)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	res = o.Rooms.Resolve(cmd.Room)
	if !res.Found() {
		o.countJoin("not_found")
		return fmt.Errorf("join %q: %w", cmd.Room, domain.ErrRoomNotFound)
	}
	target := res.Room
	targetID := target.Room().ID

	sig, ok := o.Registry.Signal(cmd.SID)
	if !ok {
		o.countJoin("invalid")
		return fmt.Errorf("join: connection %s is not attached: %w", cmd.SID, domain.ErrInvalidArgument)
	}

	logger := log.With().Str("module", "orch").Str("sid", string(cmd.SID)).Str("room", string(targetID)).Logger()

	if cmd.Origin != "" {
		if owner, ok := o.Registry.OriginOwner(cmd.Origin); ok && owner != cmd.SID {
			o.evictLocked(owner, targetID)
			logger.Info().Str("origin", string(cmd.Origin)).Str("evicted", string(owner)).Msg("evicted previous connection of origin")
		}
	}

	if prev, ok := o.Registry.Get(cmd.SID); ok {
		o.leaveLocked(cmd.SID, prev, targetID)
		if prev.Origin != cmd.Origin {
			o.Registry.UnbindOrigin(prev.Origin, cmd.SID)
		}
		logger.Info().Str("from_room", string(prev.Room)).Msg("left previous room")
	}

	target.AddMember(cmd.SID, core.NewMemberSession(member, sig))
	o.Registry.Put(cmd.SID, app.Session{
		Room:     targetID,
		Username: member.Username,
		Profile:  member.Profile,
		Origin:   cmd.Origin,
	})
	if cmd.Origin != "" {
		o.Registry.BindOrigin(cmd.Origin, cmd.SID)
	}

	o.Events.Unicast(cmd.SID, core.RoomJoined(target.Room()))
	o.Events.Unicast(cmd.SID, core.RoomMessages(target.Recent(o.replay())))
	o.publish(target, cmd.SID, core.UserJoined(member.Username, target.MemberCount()))
	o.publish(target, "", core.UsersList(target.MemberNames()))

	o.countJoin("ok")
	o.refreshGauges()
	logger.Info().Str("user", member.Username).Int("members", target.MemberCount()).Msg("joined room")
	return nil
}

// Disconnect ends the session of sid. Calling it again is a no-op.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disconnectLocked(sid, "") {
		o.refreshGauges()
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
	}
}

// evictLocked terminates an older connection of the same origin. keep is the
// room the newer connection is joining; it must survive even if emptied.
func (o *Orchestrator) evictLocked(sid core.SessionID, keep domain.RoomID) {
	hadSession := o.disconnectLocked(sid, keep)
	live := o.Registry.Cancel(sid)
	if (hadSession || live) && o.Metrics != nil {
		o.Metrics.Evictions.Inc()
	}
}

func (o *Orchestrator) disconnectLocked(sid core.SessionID, keep domain.RoomID) bool {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		return false
	}
	o.leaveLocked(sid, sess, keep)
	o.Registry.Remove(sid)
	o.Registry.UnbindOrigin(sess.Origin, sid)
	return true
}

// leaveLocked removes sid from its current room and tells the remaining members.
func (o *Orchestrator) leaveLocked(sid core.SessionID, sess app.Session, keep domain.RoomID) {
	res := o.Rooms.Resolve(sess.Room)
	if !res.Found() {
		return
	}
	room := res.Room
	if _, ok := room.RemoveMember(sid); ok {
		o.publish(room, "", core.UserLeft(sess.Username, room.MemberCount()))
		o.publish(room, "", core.UsersList(room.MemberNames()))
	}
	if sess.Room != keep {
		o.Rooms.DeleteIfEmpty(sess.Room)
	}
}

func (o *Orchestrator) countJoin(result string) {
	if o.Metrics != nil {
		o.Metrics.Joins.WithLabelValues(result).Inc()
	}
}
