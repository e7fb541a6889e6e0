package signal

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Parley/internal/app/orch"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	ChatRate       config.RateConfig
	AllowedOrigins []string
}

func OptionsFrom(cfg *config.Config) Options {
	return Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		ChatRate:       cfg.ChatRate,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

// Defaults fill init fields the client left out. Seed stabilises the
// placeholder user id for one browser.
type Defaults struct {
	UserID   string
	Language string
	Seed     string
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	opts     Options
	upgrader websocket.Upgrader
	limiter  *RoomRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	ctl := &SignalWSController{Orch: o, opts: opts}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.checkOrigin}
	if opts.ChatRate.Limit > 0 && opts.ChatRate.Interval > 0 {
		ctl.limiter = NewRoomRateLimiter(opts.ChatRate.Limit, opts.ChatRate.Interval)
	}
	return ctl
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	if len(ctl.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(ctl.opts.AllowedOrigins, origin)
}

// wsSignalConn is the transport handle of one session. Frames are queued on
// send and written by writePump; Close stops intake and lets the queue drain.
type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *wsSignalConn {
	return &wsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// HandleRoom upgrades the request and runs the relay protocol for one
// participant of the room named in the path.
func (ctl *SignalWSController) HandleRoom(ctx context.Context, c *gin.Context, defaults Defaults) {
	roomID, err := domain.ParseRoomID(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		metrics.ConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
		return
	}
	log.Info().Str("module", "signal").Str("room", string(roomID)).Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	// ctx is the server lifetime; a single connection ends through Close so
	// that queued frames still reach the client.
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, roomID, conn, defaults)
}
