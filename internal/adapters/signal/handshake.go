package signal

import (
	"errors"
	"time"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/dkeye/Parley/internal/protocol"
	"github.com/rs/zerolog/log"
)

type connState int

const (
	stateConnecting connState = iota
	stateAwaitingInit
	stateActive
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAwaitingInit:
		return "awaiting_init"
	case stateActive:
		return "active"
	default:
		return "closed"
	}
}

const (
	msgInvalidInit   = "Invalid init payload"
	msgInvalidUserID = "Invalid user id"
	msgRoomFull      = "Room is full (max 2 users)."
	msgDuplicateUser = "User id already in room"
	msgJoinFailed    = "Could not join room"
)

func (ctl *SignalWSController) prepareRead(c *wsSignalConn) {
	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	if ctl.opts.PingPeriod <= 0 {
		return
	}
	pongWait := ctl.opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// handshake reads the init frame and joins the room. A nil session means
// the connection must close without ever having been a member.
func (ctl *SignalWSController) handshake(roomID domain.RoomID, c *wsSignalConn, defaults Defaults) core.MemberSession {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("room", string(roomID)).Msg("closed before init")
		metrics.ConnectionsTotal.WithLabelValues("no_init").Inc()
		return nil
	}

	initFrame, err := protocol.ParseInit(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", string(roomID)).Msg("bad init payload")
		ctl.reject(c, "malformed_init", msgInvalidInit)
		return nil
	}

	userID, err := domain.ParseUserID(firstNonEmpty(initFrame.UserID, defaults.UserID), defaults.Seed)
	if err != nil {
		ctl.reject(c, "bad_user_id", msgInvalidUserID)
		return nil
	}
	lang := domain.ParseLanguage(firstNonEmpty(initFrame.Language, defaults.Language))
	ms := core.NewMemberSession(domain.NewMember(userID, lang), c)

	if err := ctl.Orch.Connect(roomID, ms); err != nil {
		switch {
		case errors.Is(err, core.ErrRoomFull):
			ctl.reject(c, "room_full", msgRoomFull)
		case errors.Is(err, core.ErrDuplicateMember):
			ctl.reject(c, "duplicate_user", msgDuplicateUser)
		default:
			ctl.reject(c, "join_failed", msgJoinFailed)
		}
		return nil
	}
	metrics.ConnectionsTotal.WithLabelValues("joined").Inc()
	ctl.Orch.Send(ms, protocol.NewConnected(roomID, ms.Meta()))
	return ms
}

func (ctl *SignalWSController) reject(c *wsSignalConn, reason, msg string) {
	metrics.ConnectionsTotal.WithLabelValues(reason).Inc()
	ctl.sendJSON(c, protocol.NewError(msg))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
