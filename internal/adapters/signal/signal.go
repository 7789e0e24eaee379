package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/dialnet/internal/app/orch"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	OriginIP     = "ip"
	OriginClient = "client"
	OriginNone   = "none"
)

type Options struct {
	ReadLimit       int64
	PingPeriod      time.Duration
	WriteWait       time.Duration
	SendBuffer      int
	OriginMode      string
	MaxMessageLen   int
	RateLimit       int
	RateInterval    time.Duration
	UnifyJoinErrors bool
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.OriginMode == "" {
		o.OriginMode = OriginIP
	}
	if o.MaxMessageLen <= 0 {
		o.MaxMessageLen = 500
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5
	}
	if o.RateInterval <= 0 {
		o.RateInterval = time.Second
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts     Options
	limiter  *RoomRateLimiter
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Orch:     o,
		opts:     opts,
		limiter:  NewRoomRateLimiter(opts.RateLimit, opts.RateInterval),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// originOf picks the identity used for one-connection-per-origin enforcement.
func (ctl *SignalWSController) originOf(c *gin.Context) core.Origin {
	switch ctl.opts.OriginMode {
	case OriginClient:
		return core.Origin(c.GetString("client_token"))
	case OriginNone:
		return ""
	default:
		return core.Origin(c.ClientIP())
	}
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	origin := ctl.originOf(c)
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("origin", string(origin)).Msg("new WS connection")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, origin, conn)
}
