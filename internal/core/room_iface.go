package core

import (
	"errors"

	"github.com/dkeye/Parley/internal/domain"
)

var (
	ErrRoomFull        = errors.New("room is full")
	ErrDuplicateMember = errors.New("user id already in room")
)

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID   `json:"user_id"`
	Language domain.Language `json:"language"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	IsEmpty() bool
	Member(id domain.UserID) (MemberSession, bool)
	// MembersSnapshot returns members in join order.
	MembersSnapshot() []MemberSession

	AddMember(ms MemberSession) error
	RemoveMember(id domain.UserID) (MemberSession, bool)
	RemoveSession(ms MemberSession) bool
}

type RoomInfo struct {
	Name        domain.RoomID `json:"name"`
	MemberCount int           `json:"client_count"`
}

func ToDTO(ms MemberSession) MemberDTO {
	m := ms.Meta()
	return MemberDTO{ID: m.ID, Language: m.Language}
}
