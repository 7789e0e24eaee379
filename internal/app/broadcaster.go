package app

import (
	"github.com/dkeye/dialnet/internal/core"
	"github.com/rs/zerolog/log"
)

// Broadcaster delivers events to room members and single connections.
// Delivery is fire-and-forget: a full or closed connection simply misses the event.
type Broadcaster struct {
	Registry *Registry
	Metrics  *Metrics
}

// BroadcastToRoom encodes ev once and sends it to every member of room except `except`.
func (b *Broadcaster) BroadcastToRoom(room core.RoomService, except core.SessionID, ev core.Event) core.PublishResult {
	data, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("type", string(ev.Type)).Msg("encode event")
		return core.PublishResult{}
	}
	res := room.Broadcast(except, data)
	if n := len(res.Dropped); n > 0 && b.Metrics != nil {
		b.Metrics.DroppedEvents.Add(float64(n))
	}
	return res
}

// Unicast sends ev to the live connection of sid.
func (b *Broadcaster) Unicast(sid core.SessionID, ev core.Event) bool {
	sig, ok := b.Registry.Signal(sid)
	if !ok {
		return false
	}
	data, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("type", string(ev.Type)).Msg("encode event")
		return false
	}
	if err := sig.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.broadcast").Str("sid", string(sid)).Str("type", string(ev.Type)).Msg("unicast dropped")
		if b.Metrics != nil {
			b.Metrics.DroppedEvents.Inc()
		}
		return false
	}
	return true
}
