package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/dkeye/Parley/internal/protocol"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// OnChat fans one chat message out to every member of the room, the sender
// included. Members sharing the sender's language get the original; the
// others get a translated copy. Translations run concurrently and OnChat
// returns once every recipient has been handled.
func (o *Orchestrator) OnChat(ctx context.Context, roomID domain.RoomID, from core.MemberSession, in protocol.Inbound) {
	sender := from.Meta()
	original := protocol.Message{
		UserID:     sender.ID,
		Content:    in.Content,
		Language:   sender.Language,
		IsOriginal: true,
		Timestamp:  in.Timestamp,
	}
	originalFrame, err := protocol.Encode(original)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode chat")
		return
	}

	var (
		mu      sync.Mutex
		dropped []core.MemberSession
	)
	record := func(ms core.MemberSession, res core.Delivery) {
		if res == core.PeerUnreachable {
			mu.Lock()
			dropped = append(dropped, ms)
			mu.Unlock()
		}
	}

	// Translation outlives the sender's connection: a disconnect mid-flight
	// still delivers to the peer.
	tctx := context.WithoutCancel(ctx)
	p := pool.New().WithMaxGoroutines(domain.MaxRoomMembers)
	for _, ms := range o.Registry.MembersOf(roomID) {
		target := ms.Meta()
		if target.ID == sender.ID || target.Language == sender.Language {
			record(ms, o.deliver(ms, protocol.KindMessage, originalFrame))
			continue
		}
		p.Go(func() {
			translated := protocol.Message{
				UserID:          sender.ID,
				Content:         o.translate(tctx, in.Content, target.Language),
				OriginalContent: &original.Content,
				Language:        target.Language,
				IsOriginal:      false,
				Timestamp:       in.Timestamp,
			}
			record(ms, o.Send(ms, translated))
		})
	}
	p.Wait()

	o.evict(roomID, dropped)
}

// translate never fails: any error falls back to the source text.
func (o *Orchestrator) translate(ctx context.Context, text string, target domain.Language) string {
	if o.Translator == nil {
		metrics.TranslationsTotal.WithLabelValues(string(target), "unavailable").Inc()
		return text
	}
	if o.TranslateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.TranslateTimeout)
		defer cancel()
	}
	start := time.Now()
	out, err := o.Translator.Translate(ctx, text, target)
	metrics.TranslationDuration.WithLabelValues(string(target)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(string(target), "error").Inc()
		log.Warn().Err(err).Str("module", "orch").Str("target", string(target)).Msg("translation failed, relaying original")
		return text
	}
	metrics.TranslationsTotal.WithLabelValues(string(target), "ok").Inc()
	return out
}
