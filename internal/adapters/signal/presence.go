package signal

import (
	"encoding/json"

	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

// handleRegister accepts either a bare JSON string or {"identity": "..."}.
func (ctl *SignalWSController) handleRegister(c *WsSignalConn, data json.RawMessage) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var obj struct {
			Identity string `json:"identity"`
		}
		if !ctl.decode(c, core.EventRegister, data, &obj) {
			return
		}
		raw = obj.Identity
	}
	id, ok := ctl.identity(c, "identity", raw)
	if !ok {
		return
	}
	ctl.Orch.Register(c.id, id)
	log.Info().Str("module", "signal").Str("conn", string(c.id)).Str("identity", id.String()).Msg("registered")
}
