package signal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

var (
	_ core.Deliverer        = (*Hub)(nil)
	_ core.SignalConnection = (*WsSignalConn)(nil)
)

// Hub is the table of open connections. It implements core.Deliverer.
type Hub struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*WsSignalConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[core.ConnID]*WsSignalConn)}
}

func (h *Hub) Add(c *WsSignalConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *Hub) Remove(id core.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *Hub) Get(id core.ConnID) (*WsSignalConn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Deliver(id core.ConnID, event string, payload any) error {
	c, ok := h.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownConnection, id)
	}
	frame, err := encode(event, payload)
	if err != nil {
		return err
	}
	return c.TrySend(frame)
}

func (h *Hub) Disconnect(id core.ConnID) {
	if c, ok := h.Get(id); ok {
		c.Close()
	}
}

// CloseAll closes every connection; their read pumps then run the normal
// disconnect path.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*WsSignalConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
	log.Info().Str("module", "signal").Int("closed", len(conns)).Msg("closed all connections")
}

func encode(event string, payload any) (core.Frame, error) {
	b, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}
