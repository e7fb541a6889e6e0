package app

import (
	"sync"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Registry is the single source of truth for who is in which room.
// Join and leave hold the write lock for the whole capacity check and
// mutation; reads take the read lock and return snapshots.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]core.RoomService)}
}

// Join adds ms to the room, creating it on first use, and returns the
// members that were already there.
func (r *Registry) Join(roomID domain.RoomID, ms core.MemberSession) ([]core.MemberSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		room = core.NewRoomService(&domain.Room{ID: roomID})
	}
	peers := room.MembersSnapshot()
	if err := room.AddMember(ms); err != nil {
		log.Info().Err(err).Str("module", "app.registry").Str("room", string(roomID)).Str("user", string(ms.Meta().ID)).Msg("join rejected")
		return nil, err
	}
	if !ok {
		r.rooms[roomID] = room
		metrics.RoomsActive.Inc()
		log.Info().Str("module", "app.registry").Str("room", string(roomID)).Msg("room created")
	}
	return peers, nil
}

// Leave is idempotent. It reports the removed session, if any.
func (r *Registry) Leave(roomID domain.RoomID, id domain.UserID) (core.MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	ms, removed := room.RemoveMember(id)
	r.dropIfEmptyLocked(room)
	return ms, removed
}

// LeaveSession removes ms only while it is still the registered session for
// its id.
func (r *Registry) LeaveSession(roomID domain.RoomID, ms core.MemberSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	removed := room.RemoveSession(ms)
	r.dropIfEmptyLocked(room)
	return removed
}

func (r *Registry) dropIfEmptyLocked(room core.RoomService) {
	if !room.IsEmpty() {
		return
	}
	id := room.Room().ID
	if _, ok := r.rooms[id]; !ok {
		return
	}
	delete(r.rooms, id)
	metrics.RoomsActive.Dec()
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room deleted")
}

// MembersOf returns a snapshot in join order; nil if the room is absent.
func (r *Registry) MembersOf(roomID domain.RoomID) []core.MemberSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.MembersSnapshot()
}

func (r *Registry) LanguageOf(roomID domain.RoomID, id domain.UserID) domain.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if room, ok := r.rooms[roomID]; ok {
		if ms, ok := room.Member(id); ok {
			return ms.Meta().Language
		}
	}
	return domain.DefaultLanguage
}

func (r *Registry) List() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, core.RoomInfo{Name: id, MemberCount: room.MemberCount()})
	}
	return out
}
