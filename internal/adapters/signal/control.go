package signal

import (
	"context"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/protocol"
)

const msgRateLimited = "Rate limit exceeded"

func (ctl *SignalWSController) handlePing(ms core.MemberSession) {
	ctl.Orch.Send(ms, protocol.Pong{})
}

func (ctl *SignalWSController) handleChat(ctx context.Context, roomID domain.RoomID, ms core.MemberSession, in protocol.Inbound) {
	if ctl.limiter != nil && !ctl.limiter.Allow(roomID, ms.Meta().ID) {
		ctl.Orch.Send(ms, protocol.NewError(msgRateLimited))
		return
	}
	ctl.Orch.OnChat(ctx, roomID, ms, in)
}
