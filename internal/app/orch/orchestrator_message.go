package orch

import (
	"strings"

	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Send appends text to the sender's room and echoes it to every member,
// sender included. Without a session, or with blank text, it does nothing.
// The content is stored as sent, apart from the room's content filter.
func (o *Orchestrator) Send(sid core.SessionID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sess, ok := o.Registry.Get(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("send without session ignored")
		return
	}
	res := o.Rooms.Resolve(sess.Room)
	if !res.Found() {
		return
	}

	now := o.clock()
	msg := res.Room.Append(domain.Message{
		ID:        o.nextMessageID(now.UnixMilli()),
		Username:  sess.Username,
		Content:   text,
		Timestamp: now,
	})
	if o.Metrics != nil {
		o.Metrics.Messages.Inc()
	}
	o.publish(res.Room, "", core.NewMessage(msg))
}

// nextMessageID is the creation time in milliseconds, bumped past the
// previous id so ids stay strictly increasing.
func (o *Orchestrator) nextMessageID(ms int64) int64 {
	if ms <= o.lastMsgID {
		ms = o.lastMsgID + 1
	}
	o.lastMsgID = ms
	return ms
}
