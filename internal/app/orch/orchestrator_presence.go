package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) OnConnect(conn core.ConnID) {
	o.Metrics.ConnectionOpened()
	log.Info().Str("module", "orch").Str("conn", string(conn)).Msg("connected")
}

// Register binds id to conn, replacing any earlier binding of id.
func (o *Orchestrator) Register(conn core.ConnID, id domain.Identity) {
	o.Presence.Register(id, conn)
}

// OnDisconnect must be called exactly once per connection, after its last
// inbound event. Calls still ringing for the departed identities end here.
func (o *Orchestrator) OnDisconnect(conn core.ConnID) {
	o.Metrics.ConnectionClosed()
	gone := o.Presence.RemoveByConnection(conn)
	for _, id := range gone {
		for _, call := range o.Calls.DropParty(id) {
			o.Metrics.CallTransition(call.Status.String())
			peer := call.Peer(id)
			if call.Caller == id {
				o.sendTo(peer, core.EventCallCanceled, CallReplyPayload{Sender: id, Receiver: peer})
				continue
			}
			o.sendTo(peer, core.EventCallFailed, CallFailedPayload{Receiver: id, Reason: domain.ReasonDisconnected})
		}
	}
	log.Info().Str("module", "orch").Str("conn", string(conn)).Int("identities", len(gone)).Msg("disconnected")
}

// Online reports whether id currently has a connection.
func (o *Orchestrator) Online(id domain.Identity) bool {
	_, ok := o.Presence.Lookup(id)
	return ok
}
