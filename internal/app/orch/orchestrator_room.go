package orch

import (
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Connect registers ms in the room and tells the members already there.
func (o *Orchestrator) Connect(roomID domain.RoomID, ms core.MemberSession) error {
	peers, err := o.Registry.Join(roomID, ms)
	if err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("room", string(roomID)).Str("user", string(ms.Meta().ID)).Str("language", string(ms.Meta().Language)).Msg("joined")
	o.fanout(roomID, peers, protocol.NewUserJoined(ms.Meta()))
	return nil
}

// Disconnect removes ms if it is still registered and reports user_left to
// the rest. It returns false when someone else already removed it.
func (o *Orchestrator) Disconnect(roomID domain.RoomID, ms core.MemberSession) bool {
	if !o.Registry.LeaveSession(roomID, ms) {
		return false
	}
	log.Info().Str("module", "orch").Str("room", string(roomID)).Str("user", string(ms.Meta().ID)).Msg("left")
	o.broadcast(roomID, protocol.NewUserLeft(ms.Meta().ID), ms.Meta().ID)
	return true
}

// Kick force-removes a member by id and closes its transport.
func (o *Orchestrator) Kick(roomID domain.RoomID, id domain.UserID) bool {
	ms, ok := o.Registry.Leave(roomID, id)
	if !ok {
		return false
	}
	ms.Signal().Close()
	log.Info().Str("module", "orch").Str("room", string(roomID)).Str("user", string(id)).Msg("kicked")
	o.broadcast(roomID, protocol.NewUserLeft(id), id)
	return true
}

func (o *Orchestrator) OnTyping(roomID domain.RoomID, from core.MemberSession, isTyping bool) {
	id := from.Meta().ID
	o.broadcast(roomID, protocol.Typing{UserID: id, IsTyping: isTyping}, id)
}
