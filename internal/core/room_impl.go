package core

import (
	"slices"
	"sync"

	"github.com/dkeye/dialnet/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room    *domain.Room
	filter  TextFilter
	mu      sync.RWMutex
	bySID   map[SessionID]MemberSession
	order   []SessionID
	history *History
}

func NewRoomService(room *domain.Room, history *History, filter TextFilter) RoomService {
	if history == nil {
		history = NewHistory(DefaultHistoryCapacity)
	}
	return &roomImpl{
		room:    room,
		filter:  filter,
		bySID:   make(map[SessionID]MemberSession),
		history: history,
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) HasMember(sid SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySID[sid]
	return ok
}

// MemberNames lists display names in arrival order.
func (r *roomImpl) MemberNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.bySID[sid].Meta().Username)
	}
	return out
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		r.order = append(r.order, sid)
	}
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Str("user", ms.Meta().Username).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) (MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	if !ok {
		return nil, false
	}
	delete(r.bySID, sid)
	if i := slices.Index(r.order, sid); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member removed")
	return ms, true
}

// Append filters the content, stamps the room id and stores the message.
func (r *roomImpl) Append(msg domain.Message) domain.Message {
	if r.filter != nil {
		msg.Content = r.filter.Apply(msg.Content)
	}
	msg.Room = r.room.ID
	r.mu.Lock()
	r.history.Append(msg)
	r.mu.Unlock()
	return msg
}

func (r *roomImpl) Recent(n int) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history.Recent(n)
}

func (r *roomImpl) Broadcast(except SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, sid := range r.order {
		if sid == except {
			continue
		}
		if err := r.bySID[sid].Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
