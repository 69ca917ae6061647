package orch

import (
	"errors"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	ErrReceiverOffline     = errors.New("receiver not connected")
	ErrReceiverUnreachable = errors.New("receiver unreachable")
	ErrNoRingingCall       = errors.New("no ringing call")
	ErrSelfCall            = errors.New("caller and callee are the same identity")
)

// Orchestrator routes inbound events to the connections of their targets.
// It holds no per-event state of its own; presence and ringing calls live in
// the injected registry and tracker.
type Orchestrator struct {
	Presence  *app.PresenceRegistry
	Calls     *app.CallTracker
	Transport core.Deliverer
	Policy    app.Policy
	Metrics   metrics.Recorder

	// Strict drops call resolutions that match no ringing call.
	Strict bool
}

type Options struct {
	Presence  *app.PresenceRegistry
	Calls     *app.CallTracker
	Transport core.Deliverer
	Policy    app.Policy
	Metrics   metrics.Recorder
	Strict    bool
}

// New wires an Orchestrator and subscribes it to ring timeouts.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		Presence:  opts.Presence,
		Calls:     opts.Calls,
		Transport: opts.Transport,
		Policy:    opts.Policy,
		Metrics:   opts.Metrics,
		Strict:    opts.Strict,
	}
	if o.Presence == nil {
		o.Presence = app.NewPresenceRegistry()
	}
	if o.Calls == nil {
		o.Calls = app.NewCallTracker(0)
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Noop{}
	}
	o.Calls.OnExpire(o.onRingTimeout)
	return o
}

func (o *Orchestrator) deliver(conn core.ConnID, event string, payload any) error {
	err := o.Transport.Deliver(conn, event, payload)
	if err == nil {
		o.Metrics.Delivery(event, metrics.OutcomeSent)
		return nil
	}
	o.Metrics.Delivery(event, metrics.OutcomeDropped)
	log.Warn().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("event", event).Msg("delivery dropped")
	if errors.Is(err, core.ErrBackpressure) && o.Policy != nil {
		if o.Policy.OnBackPressure(conn, event) == app.KickConnection {
			log.Warn().Str("module", "orch").Str("conn", string(conn)).Msg("kicking slow connection")
			o.Transport.Disconnect(conn)
		}
	}
	return err
}

// sendTo delivers to the current connection of id, if any.
func (o *Orchestrator) sendTo(id domain.Identity, event string, payload any) core.PublishResult {
	conn, ok := o.Presence.Lookup(id)
	if !ok {
		o.Metrics.Delivery(event, metrics.OutcomeOffline)
		log.Debug().Str("module", "orch").Str("identity", id.String()).Str("event", event).Msg("target not connected")
		return core.PublishResult{Offline: 1}
	}
	if err := o.deliver(conn, event, payload); err != nil {
		return core.PublishResult{Dropped: []core.ConnID{conn}}
	}
	return core.PublishResult{SendTo: 1}
}

// fanOut delivers to every distinct member except sender.
func (o *Orchestrator) fanOut(sender domain.Identity, members []domain.Identity, event string, payload any) core.PublishResult {
	var res core.PublishResult
	seen := make(map[domain.Identity]struct{}, len(members))
	for _, m := range members {
		if m == sender || m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		res.Merge(o.sendTo(m, event, payload))
	}
	return res
}
