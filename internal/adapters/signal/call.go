package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type incomingCallWire struct {
	Sender     string `json:"sender"`
	SenderName string `json:"senderName"`
	Receiver   string `json:"receiver"`
	Channel    string `json:"channel"`
}

type callReplyWire struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

func (ctl *SignalWSController) handleIncomingCall(c *WsSignalConn, data json.RawMessage) {
	var w incomingCallWire
	if !ctl.decode(c, core.EventIncomingCall, data, &w) {
		return
	}
	caller, ok := ctl.senderOf(c, w.Sender)
	if !ok {
		return
	}
	callee, ok := ctl.identity(c, "receiver", w.Receiver)
	if !ok {
		return
	}
	_, err := ctl.Orch.IncomingCall(domain.CallRing{
		Caller:     caller,
		CallerName: w.SenderName,
		Callee:     callee,
		Channel:    w.Channel,
	})
	if err != nil {
		logCallError(err, core.EventIncomingCall, caller, callee)
	}
}

// handleCallReply maps wire sender/receiver onto call roles. The callee
// sends accept and reject, the caller sends cancel.
func (ctl *SignalWSController) handleCallReply(c *WsSignalConn, event string, data json.RawMessage) {
	var w callReplyWire
	if !ctl.decode(c, event, data, &w) {
		return
	}
	sender, ok := ctl.senderOf(c, w.Sender)
	if !ok {
		return
	}
	receiver, ok := ctl.identity(c, "receiver", w.Receiver)
	if !ok {
		return
	}

	var err error
	switch event {
	case core.EventCallAccepted:
		_, err = ctl.Orch.AcceptCall(domain.CallReply{Caller: receiver, Callee: sender})
	case core.EventCallRejected:
		_, err = ctl.Orch.RejectCall(domain.CallReply{Caller: receiver, Callee: sender})
	case core.EventCallCanceled:
		_, err = ctl.Orch.CancelCall(domain.CallReply{Caller: sender, Callee: receiver})
	}
	if err != nil {
		logCallError(err, event, sender, receiver)
	}
}

func logCallError(err error, event string, sender, receiver domain.Identity) {
	ev := log.Warn()
	if errors.Is(err, orch.ErrReceiverOffline) || errors.Is(err, orch.ErrNoRingingCall) {
		ev = log.Info()
	}
	ev.Err(err).Str("module", "signal").Str("event", event).Str("sender", sender.String()).Str("receiver", receiver.String()).Msg("call event not completed")
}
