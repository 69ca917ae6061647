package orch

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// IncomingCall rings the callee. When the callee is offline no call is
// created and the caller gets callFailed instead.
func (o *Orchestrator) IncomingCall(r domain.CallRing) (core.PublishResult, error) {
	if r.Caller == r.Callee {
		return core.PublishResult{}, ErrSelfCall
	}
	conn, ok := o.Presence.Lookup(r.Callee)
	if !ok {
		log.Info().Str("module", "orch").Str("caller", r.Caller.String()).Str("callee", r.Callee.String()).Msg("callee not connected")
		o.Metrics.CallTransition(domain.CallFailed.String())
		res := o.sendTo(r.Caller, core.EventCallFailed, CallFailedPayload{Receiver: r.Callee, Reason: domain.ReasonNotConnected})
		return res, ErrReceiverOffline
	}

	call, _ := o.Calls.Ring(r)
	o.Metrics.CallTransition(domain.CallRinging.String())
	err := o.deliver(conn, core.EventIncomingCall, IncomingCallPayload{
		Sender:     r.Caller,
		SenderName: r.CallerName,
		Channel:    r.Channel,
		Type:       callTypeVoice,
		CallID:     call.ID,
	})
	if err != nil {
		if _, ok := o.Calls.Resolve(r.Caller, r.Callee, domain.CallFailed); ok {
			o.Metrics.CallTransition(domain.CallFailed.String())
		}
		res := o.sendTo(r.Caller, core.EventCallFailed, CallFailedPayload{Receiver: r.Callee, Reason: domain.ReasonUnreachable})
		res.Dropped = append(res.Dropped, conn)
		return res, fmt.Errorf("%w: %w", ErrReceiverUnreachable, err)
	}
	log.Info().Str("module", "orch").Str("call", string(call.ID)).Str("caller", r.Caller.String()).Str("callee", r.Callee.String()).Msg("incoming call delivered")
	return core.PublishResult{SendTo: 1}, nil
}

// AcceptCall notifies the caller that the callee picked up.
func (o *Orchestrator) AcceptCall(r domain.CallReply) (core.PublishResult, error) {
	return o.resolve(r, domain.CallAccepted, core.EventCallAccepted, r.Caller,
		CallReplyPayload{Sender: r.Callee, Receiver: r.Caller})
}

// RejectCall notifies the caller that the callee declined.
func (o *Orchestrator) RejectCall(r domain.CallReply) (core.PublishResult, error) {
	return o.resolve(r, domain.CallRejected, core.EventCallRejected, r.Caller,
		CallReplyPayload{Sender: r.Callee, Receiver: r.Caller})
}

// CancelCall notifies the callee that the caller hung up before pickup.
func (o *Orchestrator) CancelCall(r domain.CallReply) (core.PublishResult, error) {
	return o.resolve(r, domain.CallCanceled, core.EventCallCanceled, r.Callee,
		CallReplyPayload{Sender: r.Caller, Receiver: r.Callee})
}

func (o *Orchestrator) resolve(
	r domain.CallReply,
	status domain.CallStatus,
	event string,
	notify domain.Identity,
	payload CallReplyPayload,
) (core.PublishResult, error) {
	call, ok := o.Calls.Resolve(r.Caller, r.Callee, status)
	switch {
	case ok:
		o.Metrics.CallTransition(status.String())
		log.Info().Str("module", "orch").Str("call", string(call.ID)).Str("status", status.String()).Msg("call resolved")
	case o.Strict:
		log.Info().Str("module", "orch").Str("caller", r.Caller.String()).Str("callee", r.Callee.String()).Str("event", event).Msg("no ringing call, dropped")
		return core.PublishResult{}, ErrNoRingingCall
	default:
		log.Debug().Str("module", "orch").Str("caller", r.Caller.String()).Str("callee", r.Callee.String()).Str("event", event).Msg("no ringing call, forwarding anyway")
	}
	return o.sendTo(notify, event, payload), nil
}

func (o *Orchestrator) onRingTimeout(call domain.Call) {
	o.Metrics.CallTransition(call.Status.String())
	o.sendTo(call.Caller, core.EventCallFailed, CallFailedPayload{Receiver: call.Callee, Reason: domain.ReasonNoAnswer})
	o.sendTo(call.Callee, core.EventCallCanceled, CallReplyPayload{Sender: call.Caller, Receiver: call.Callee})
}
