package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

// RelayMedia forwards a WebRTC offer, answer or ICE candidate to its
// receiver. Like chat traffic it is best effort.
func (o *Orchestrator) RelayMedia(event string, p MediaPayload) core.PublishResult {
	if p.Sender == p.Receiver {
		return core.PublishResult{}
	}
	res := o.sendTo(p.Receiver, event, p)
	log.Debug().Str("module", "orch").Str("event", event).Str("sender", p.Sender.String()).Str("receiver", p.Receiver.String()).Int("sent_to", res.SendTo).Msg("media relayed")
	return res
}
