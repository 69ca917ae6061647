package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type inEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump owns the connection lifecycle: when it returns the connection is
// gone from the hub and the orchestrator has seen exactly one disconnect.
func (ctl *SignalWSController) readPump(c *WsSignalConn) {
	defer func() {
		ctl.Hub.Remove(c.id)
		ctl.limiter.Forget(c.id)
		ctl.Orch.OnDisconnect(c.id)
		c.Close()
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closed")
	}()

	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ctl.handleSignal(c, data)
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("module", "signal").Str("conn", string(c.id)).Msg("handler panic")
		}
	}()

	// Every frame counts against the limit, malformed ones included.
	if !ctl.limiter.Allow(c.id, time.Now()) {
		ctl.Orch.Metrics.RateLimited()
		log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("rate limited")
		return
	}
	var env inEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("bad json")
		return
	}
	ctl.Orch.Metrics.EventReceived(env.Event)

	switch env.Event {
	case core.EventRegister:
		ctl.handleRegister(c, env.Data)
	case core.EventPing:
		ctl.handlePing(c)
	case core.EventSendMessage:
		ctl.handleSendMessage(c, env.Data)
	case core.EventSendGroupMessage:
		ctl.handleSendGroupMessage(c, env.Data)
	case core.EventTyping, core.EventStopTyping:
		ctl.handleTyping(c, env.Event, env.Data)
	case core.EventIncomingCall:
		ctl.handleIncomingCall(c, env.Data)
	case core.EventCallAccepted, core.EventCallRejected, core.EventCallCanceled:
		ctl.handleCallReply(c, env.Event, env.Data)
	case core.EventCallOffer:
		ctl.handleOffer(c, env.Data)
	case core.EventCallAnswer:
		ctl.handleAnswer(c, env.Data)
	case core.EventICECandidate:
		ctl.handleCandidate(c, env.Data)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) decode(c *WsSignalConn, event string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		log.Warn().Str("module", "signal").Str("conn", string(c.id)).Str("event", event).Msg("missing payload")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Str("event", event).Msg("bad payload")
		return false
	}
	return true
}

// senderOf parses the sender field, falling back to the connection's only
// registered identity when the field is empty.
func (ctl *SignalWSController) senderOf(c *WsSignalConn, raw string) (domain.Identity, bool) {
	if raw == "" {
		if ids := ctl.Orch.Presence.IdentitiesOf(c.id); len(ids) == 1 {
			return ids[0], true
		}
	}
	return ctl.identity(c, "sender", raw)
}

func (ctl *SignalWSController) identity(c *WsSignalConn, field, raw string) (domain.Identity, bool) {
	id, err := domain.ParseIdentity(raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Str("field", field).Msg("bad identity")
		return "", false
	}
	return id, true
}

func (ctl *SignalWSController) identities(raw []string) []domain.Identity {
	out := make([]domain.Identity, 0, len(raw))
	for _, r := range raw {
		if id, err := domain.ParseIdentity(r); err == nil {
			out = append(out, id)
		}
	}
	return out
}
