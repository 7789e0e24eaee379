package app

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// PublicRoom is a pre-configured permanent room.
type PublicRoom struct {
	ID   domain.RoomID   `mapstructure:"id"`
	Name domain.RoomName `mapstructure:"name"`
}

type ResolutionKind int

const (
	NotFound ResolutionKind = iota
	Public
	Private
)

// Resolution is the outcome of Resolve: Public(room), Private(room) or NotFound.
type Resolution struct {
	Kind ResolutionKind
	Room core.RoomService
}

func (r Resolution) Found() bool { return r.Kind != NotFound }

type RoomManagerOptions struct {
	HistoryCapacity int
	Filter          core.TextFilter
	PasswordCost    int
}

// RoomManager is the room registry. Public rooms live for the whole process,
// private rooms exist while they have members.
type RoomManager struct {
	opts RoomManagerOptions

	mu           sync.RWMutex
	public       map[domain.RoomID]core.RoomService
	publicOrder  []domain.RoomID
	private      map[domain.RoomID]core.RoomService
	privateOrder []domain.RoomID
}

func NewRoomManager(public []PublicRoom, opts RoomManagerOptions) *RoomManager {
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	m := &RoomManager{
		opts:    opts,
		public:  make(map[domain.RoomID]core.RoomService, len(public)),
		private: make(map[domain.RoomID]core.RoomService),
	}
	for _, p := range public {
		if _, dup := m.public[p.ID]; dup || p.ID == "" {
			log.Warn().Str("module", "app.rooms").Str("room", string(p.ID)).Msg("skipping duplicate or empty public room")
			continue
		}
		name := p.Name
		if name == "" {
			name = domain.RoomName(p.ID)
		}
		m.public[p.ID] = m.newRoom(&domain.Room{ID: p.ID, Name: name, Kind: domain.RoomPublic, CreatedAt: time.Now()})
		m.publicOrder = append(m.publicOrder, p.ID)
	}
	return m
}

func (m *RoomManager) newRoom(room *domain.Room) core.RoomService {
	return core.NewRoomService(room, core.NewHistory(m.opts.HistoryCapacity), m.opts.Filter)
}

// Resolve looks up public rooms first, then private rooms.
func (m *RoomManager) Resolve(id domain.RoomID) Resolution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.public[id]; ok {
		return Resolution{Kind: Public, Room: r}
	}
	if r, ok := m.private[id]; ok {
		return Resolution{Kind: Private, Room: r}
	}
	return Resolution{Kind: NotFound}
}

// CreatePrivateRoom registers an empty password-protected room and returns its id.
func (m *RoomManager) CreatePrivateRoom(name, password, creator string) (domain.RoomID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("room name is required: %w", domain.ErrInvalidArgument)
	}
	if password == "" {
		return "", fmt.Errorf("room password is required: %w", domain.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.opts.PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash room password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := newRoomID()
	for m.existsLocked(id) {
		id = newRoomID()
	}
	m.private[id] = m.newRoom(&domain.Room{
		ID:           id,
		Name:         domain.RoomName(name),
		Kind:         domain.RoomPrivate,
		PasswordHash: hash,
		CreatedBy:    creator,
		CreatedAt:    time.Now(),
	})
	m.privateOrder = append(m.privateOrder, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("name", name).Str("creator", creator).Msg("private room created")
	return id, nil
}

func (m *RoomManager) existsLocked(id domain.RoomID) bool {
	_, pub := m.public[id]
	_, priv := m.private[id]
	return pub || priv
}

// newRoomID is a base36 millisecond timestamp plus a random suffix.
func newRoomID() domain.RoomID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return domain.RoomID(strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + suffix)
}

// Authorize reports whether password opens room. Public rooms need none.
func (m *RoomManager) Authorize(room *domain.Room, password string) bool {
	if !room.IsPrivate() {
		return true
	}
	return bcrypt.CompareHashAndPassword(room.PasswordHash, []byte(password)) == nil
}

// DeleteIfEmpty removes a private room without members. Public rooms are never removed.
func (m *RoomManager) DeleteIfEmpty(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.private[id]
	if !ok || r.MemberCount() > 0 {
		return false
	}
	delete(m.private, id)
	if i := slices.Index(m.privateOrder, id); i >= 0 {
		m.privateOrder = slices.Delete(m.privateOrder, i, i+1)
	}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("private room deleted")
	return true
}

// ExpireEmpty removes private rooms that have no members and were created
// more than ttl before now. Rooms emptied by a departure are already gone,
// so in practice this reaps rooms nobody ever joined.
func (m *RoomManager) ExpireEmpty(now time.Time, ttl time.Duration) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []domain.RoomID
	kept := m.privateOrder[:0]
	for _, id := range m.privateOrder {
		r := m.private[id]
		if r.MemberCount() == 0 && now.Sub(r.Room().CreatedAt) > ttl {
			delete(m.private, id)
			expired = append(expired, id)
			continue
		}
		kept = append(kept, id)
	}
	m.privateOrder = kept
	for _, id := range expired {
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Dur("ttl", ttl).Msg("unused private room expired")
	}
	return expired
}

// List returns public rooms in configuration order, then private rooms in creation order.
func (m *RoomManager) List() []domain.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(m.publicOrder)+len(m.privateOrder))
	for _, id := range m.publicOrder {
		out = append(out, info(m.public[id]))
	}
	for _, id := range m.privateOrder {
		out = append(out, info(m.private[id]))
	}
	return out
}

func info(r core.RoomService) domain.RoomInfo {
	room := r.Room()
	return domain.RoomInfo{ID: room.ID, Name: room.Name, MemberCount: r.MemberCount(), Kind: room.Kind}
}

// PrivateCount is the number of live private rooms.
func (m *RoomManager) PrivateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.private)
}
