package orch

import (
	"time"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/dkeye/Parley/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator ties the registry to message delivery. It is shared by every
// connection handler.
type Orchestrator struct {
	Registry   *app.Registry
	Policy     app.Policy
	Translator core.Translator
	// TranslateTimeout bounds one translation call; zero means no bound.
	TranslateTimeout time.Duration
}

// Send delivers env to a single session.
func (o *Orchestrator) Send(ms core.MemberSession, env protocol.Envelope) core.Delivery {
	frame, err := protocol.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode envelope")
		return core.PeerUnreachable
	}
	return o.deliver(ms, env.Kind(), frame)
}

func (o *Orchestrator) deliver(ms core.MemberSession, kind protocol.Kind, frame core.Frame) core.Delivery {
	res := core.Deliver(ms.Signal(), frame)
	metrics.DeliveriesTotal.WithLabelValues(string(kind), res.String()).Inc()
	if res == core.PeerUnreachable {
		log.Warn().Str("module", "orch").Str("user", string(ms.Meta().ID)).Str("kind", string(kind)).Msg("peer unreachable")
	}
	return res
}

// fanout sends one envelope to targets and evicts whoever could not take it.
func (o *Orchestrator) fanout(roomID domain.RoomID, targets []core.MemberSession, env protocol.Envelope) {
	if len(targets) == 0 {
		return
	}
	frame, err := protocol.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode envelope")
		return
	}
	var dropped []core.MemberSession
	for _, ms := range targets {
		if o.deliver(ms, env.Kind(), frame) == core.PeerUnreachable {
			dropped = append(dropped, ms)
		}
	}
	o.evict(roomID, dropped)
}

// broadcast sends env to every current member except the given id.
func (o *Orchestrator) broadcast(roomID domain.RoomID, env protocol.Envelope, exclude domain.UserID) {
	members := o.Registry.MembersOf(roomID)
	targets := make([]core.MemberSession, 0, len(members))
	for _, ms := range members {
		if ms.Meta().ID != exclude {
			targets = append(targets, ms)
		}
	}
	o.fanout(roomID, targets, env)
}

func (o *Orchestrator) evict(roomID domain.RoomID, dropped []core.MemberSession) {
	for _, ms := range dropped {
		action := app.KickMember
		if o.Policy != nil {
			action = o.Policy.OnUnreachable(ms)
		}
		switch action {
		case app.KickMember:
			if o.Registry.LeaveSession(roomID, ms) {
				ms.Signal().Close()
				log.Info().Str("module", "orch").Str("room", string(roomID)).Str("user", string(ms.Meta().ID)).Msg("kicked unreachable member")
				o.broadcast(roomID, protocol.NewUserLeft(ms.Meta().ID), ms.Meta().ID)
			}
		case app.NoAction:
		}
	}
}
