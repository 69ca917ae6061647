package signal

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	if err := ctl.Hub.Deliver(c.id, core.EventPong, nil); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("pong dropped")
	}
}
