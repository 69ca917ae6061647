package signal

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendQueue      int
	AllowedOrigins []string
	RateEvents     int
	RateInterval   time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendQueue:      cfg.SendQueue,
		AllowedOrigins: cfg.AllowedOrigins,
		RateEvents:     cfg.RateLimit.Events,
		RateInterval:   cfg.RateLimit.Interval,
	}
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	Hub  *Hub

	opts     Options
	limiter  *EventRateLimiter
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, hub *Hub, opts Options) *SignalWSController {
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	return &SignalWSController{
		Orch:    o,
		Hub:     hub,
		opts:    opts,
		limiter: NewEventRateLimiter(opts.RateEvents, opts.RateInterval),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(opts.AllowedOrigins),
		},
	}
}

// WsSignalConn is one client WebSocket. Frames are queued on send and
// written by a single writePump.
type WsSignalConn struct {
	id          core.ConnID
	clientToken string
	conn        *websocket.Conn
	send        chan core.Frame
	cancel      context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) ID() core.ConnID { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
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
	if c.cancel != nil {
		c.cancel()
	}
	_ = c.conn.Close()
	c.mu.Unlock()
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		log.Warn().Str("module", "signal").Str("origin", origin).Msg("origin rejected")
		return false
	}
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	conn := &WsSignalConn{
		id:          core.ConnID(uuid.NewString()),
		clientToken: c.GetString("client_token"),
		conn:        ws,
		send:        make(chan core.Frame, ctl.opts.SendQueue),
		cancel:      cancel,
	}
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Str("client_token", conn.clientToken).Str("remote", c.Request.RemoteAddr).Msg("new WS connection")

	ctl.Hub.Add(conn)
	ctl.Orch.OnConnect(conn.id)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(conn)
}
