package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/stretchr/testify/require"
)

type nopConn struct{ fail bool }

func (c *nopConn) TrySend(Frame) error {
	if c.fail {
		return errors.New("gone")
	}
	return nil
}
func (c *nopConn) Close() {}

func newSession(id string, lang string) MemberSession {
	return NewMemberSession(domain.NewMember(domain.UserID(id), domain.Language(lang)), &nopConn{})
}

func TestRoom_AddMember_EnforcesCapacity(t *testing.T) {
	req := require.New(t)
	room := NewRoomService(&domain.Room{ID: "r1"})

	req.NoError(room.AddMember(newSession("A", "en")))
	req.NoError(room.AddMember(newSession("B", "fr")))

	// When a third participant arrives
	err := room.AddMember(newSession("C", "de"))

	// Then it is rejected and membership is unchanged
	req.ErrorIs(err, ErrRoomFull)
	req.Equal(2, room.MemberCount())
	_, ok := room.Member("C")
	req.False(ok)
}

func TestRoom_AddMember_RejectsDuplicateID(t *testing.T) {
	req := require.New(t)
	room := NewRoomService(&domain.Room{ID: "r1"})
	first := newSession("A", "en")

	req.NoError(room.AddMember(first))
	req.ErrorIs(room.AddMember(newSession("A", "es")), ErrDuplicateMember)

	ms, ok := room.Member("A")
	req.True(ok)
	req.Same(first, ms)
}

func TestRoom_AddMember_FullRoomRejectsKnownID(t *testing.T) {
	req := require.New(t)
	room := NewRoomService(&domain.Room{ID: "r1"})
	req.NoError(room.AddMember(newSession("A", "en")))
	req.NoError(room.AddMember(newSession("B", "fr")))

	// When A tries to join again while both seats are taken
	err := room.AddMember(newSession("A", "es"))

	// Then the room answers full, not duplicate
	req.ErrorIs(err, ErrRoomFull)
	req.NotErrorIs(err, ErrDuplicateMember)
	req.Equal(2, room.MemberCount())
}

func TestRoom_MembersSnapshot_JoinOrder(t *testing.T) {
	req := require.New(t)
	room := NewRoomService(&domain.Room{ID: "r1"})

	req.NoError(room.AddMember(newSession("B", "fr")))
	req.NoError(room.AddMember(newSession("A", "en")))

	snap := room.MembersSnapshot()
	req.Len(snap, 2)
	req.Equal(MemberDTO{ID: "B", Language: "fr"}, ToDTO(snap[0]))
	req.Equal(MemberDTO{ID: "A", Language: "en"}, ToDTO(snap[1]))

	_, ok := room.RemoveMember("B")
	req.True(ok)
	snap = room.MembersSnapshot()
	req.Len(snap, 1)
	req.Equal(domain.UserID("A"), snap[0].Meta().ID)
}

func TestRoom_RemoveSession_IgnoresStaleSession(t *testing.T) {
	req := require.New(t)
	room := NewRoomService(&domain.Room{ID: "r1"})
	stale := newSession("A", "en")
	req.NoError(room.AddMember(stale))
	_, ok := room.RemoveMember("A")
	req.True(ok)

	fresh := newSession("A", "en")
	req.NoError(room.AddMember(fresh))

	// The old handler leaving must not evict the new session
	req.False(room.RemoveSession(stale))
	req.Equal(1, room.MemberCount())
	req.True(room.RemoveSession(fresh))
	req.True(room.IsEmpty())
}

func TestRoom_RemoveMember_Absent(t *testing.T) {
	room := NewRoomService(&domain.Room{ID: "r1"})
	_, ok := room.RemoveMember("nobody")
	require.False(t, ok)
}

func TestRoom_ConcurrentJoins_NeverExceedCapacity(t *testing.T) {
	req := require.New(t)
	room := NewRoomService(&domain.Room{ID: "race"})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ms := newSession("u"+string(rune('A'+i%26))+string(rune('a'+i/26)), "en")
			if err := room.AddMember(ms); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	req.Equal(domain.MaxRoomMembers, accepted)
	req.Equal(domain.MaxRoomMembers, room.MemberCount())
}

func TestDeliver(t *testing.T) {
	req := require.New(t)
	req.Equal(Delivered, Deliver(&nopConn{}, Frame("x")))
	req.Equal(PeerUnreachable, Deliver(&nopConn{fail: true}, Frame("x")))
	req.Equal(PeerUnreachable, Deliver(nil, Frame("x")))
}
