package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/dkeye/Parley/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const msgInvalidFrame = "Invalid message format"

// writePump owns every write to the socket and closes it on exit.
func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	var ping <-chan time.Time
	if ctl.opts.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.opts.PingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer func() {
		_ = c.conn.Close()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ping:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump drives one connection through its states. Frames are handled
// one at a time, in arrival order.
func (ctl *SignalWSController) readPump(ctx context.Context, roomID domain.RoomID, c *wsSignalConn, defaults Defaults) {
	state := stateConnecting
	var ms core.MemberSession
	defer func() {
		if ms != nil {
			ctl.Orch.Disconnect(roomID, ms)
			if ctl.limiter != nil {
				ctl.limiter.Forget(roomID, ms.Meta().ID)
			}
		}
		c.Close()
		log.Info().Str("module", "signal").Str("room", string(roomID)).Str("from", state.String()).Msg("readPump closing")
	}()

	ctl.prepareRead(c)
	state = stateAwaitingInit
	if ms = ctl.handshake(roomID, c, defaults); ms == nil {
		return
	}
	state = stateActive

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("user", string(ms.Meta().ID)).Msg("readPump read error")
			}
			return
		}
		ctl.handleFrame(ctx, roomID, ms, data)
	}
}

func (ctl *SignalWSController) handleFrame(ctx context.Context, roomID domain.RoomID, ms core.MemberSession, data []byte) {
	in, err := protocol.ParseInbound(data)
	switch {
	case errors.Is(err, protocol.ErrUnknownKind):
		metrics.FramesTotal.WithLabelValues("unknown").Inc()
		ctl.Orch.Send(ms, protocol.NewError(fmt.Sprintf("Unknown message type: %s", in.Type)))
		return
	case err != nil:
		metrics.FramesTotal.WithLabelValues("malformed").Inc()
		log.Debug().Err(err).Str("module", "signal").Str("user", string(ms.Meta().ID)).Msg("bad frame")
		ctl.Orch.Send(ms, protocol.NewError(msgInvalidFrame))
		return
	}
	metrics.FramesTotal.WithLabelValues(string(in.Type)).Inc()

	switch in.Type {
	case protocol.InChat:
		ctl.handleChat(ctx, roomID, ms, in)
	case protocol.InTyping:
		ctl.Orch.OnTyping(roomID, ms, in.IsTyping)
	case protocol.InPing:
		ctl.handlePing(ms)
	}
}

func (ctl *SignalWSController) sendJSON(c *wsSignalConn, env protocol.Envelope) {
	frame, err := protocol.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(frame)
}
