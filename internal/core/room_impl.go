package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room   *domain.Room
	mu     sync.RWMutex
	byUser map[domain.UserID]MemberSession
	order  []domain.UserID
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:   room,
		byUser: make(map[domain.UserID]MemberSession, domain.MaxRoomMembers),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *roomImpl) IsEmpty() bool { return r.MemberCount() == 0 }

func (r *roomImpl) Member(id domain.UserID) (MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.byUser[id]
	return ms, ok
}

// AddMember checks capacity, then id uniqueness, and inserts under one lock.
// A full room answers ErrRoomFull even to an id it already holds.
func (r *roomImpl) AddMember(ms MemberSession) error {
	u := ms.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.byUser) >= domain.MaxRoomMembers {
		return ErrRoomFull
	}
	if _, ok := r.byUser[u]; ok {
		return ErrDuplicateMember
	}
	r.byUser[u] = ms
	r.order = append(r.order, u)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(u)).Msg("member added")
	return nil
}

func (r *roomImpl) RemoveMember(id domain.UserID) (MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

// RemoveSession only removes id if it still maps to ms, so a stale handler
// cannot evict a newer session that reused the id.
func (r *roomImpl) RemoveSession(ms MemberSession) bool {
	id := ms.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[id]; !ok || cur != ms {
		return false
	}
	_, ok := r.removeLocked(id)
	return ok
}

func (r *roomImpl) removeLocked(id domain.UserID) (MemberSession, bool) {
	ms, ok := r.byUser[id]
	if !ok {
		return nil, false
	}
	delete(r.byUser, id)
	r.order = slices.DeleteFunc(r.order, func(u domain.UserID) bool { return u == id })
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(id)).Msg("member removed")
	return ms, true
}

func (r *roomImpl) MembersSnapshot() []MemberSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSession, 0, len(r.order))
	for _, u := range r.order {
		out = append(out, r.byUser[u])
	}
	return out
}
