package orch

import (
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func events(ds []delivery) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.event)
	}
	return out
}

func TestIncomingCall_OfflineReceiver(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")

	_, err := o.IncomingCall(domain.CallRing{Caller: "alice", CallerName: "Alice", Callee: "bob", Channel: "ch"})
	assert.ErrorIs(t, err, ErrReceiverOffline)

	got := tr.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, core.ConnID("c1"), got[0].conn)
	assert.Equal(t, core.EventCallFailed, got[0].event)
	assert.Equal(t, CallFailedPayload{Receiver: "bob", Reason: domain.ReasonNotConnected}, got[0].payload)
	assert.Zero(t, o.Calls.Count())
}

func TestIncomingCall_OfflineReceiverAndCaller(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)

	_, err := o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	assert.ErrorIs(t, err, ErrReceiverOffline)
	assert.Empty(t, tr.deliveries())
}

func TestIncomingCall_AcceptFlow(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	o.Register("c2", "bob")

	res, err := o.IncomingCall(domain.CallRing{Caller: "alice", CallerName: "Alice", Callee: "bob", Channel: "ch-9"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SendTo)

	got := tr.to("c2")
	require.Len(t, got, 1)
	assert.Equal(t, core.EventIncomingCall, got[0].event)
	p := got[0].payload.(IncomingCallPayload)
	assert.Equal(t, domain.Identity("alice"), p.Sender)
	assert.Equal(t, "Alice", p.SenderName)
	assert.Equal(t, "ch-9", p.Channel)
	assert.Equal(t, "voice", p.Type)
	assert.NotEmpty(t, p.CallID)
	assert.Empty(t, tr.to("c1"), "no callFailed for an online receiver")

	tr.reset()
	_, err = o.AcceptCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	got = tr.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, core.ConnID("c1"), got[0].conn)
	assert.Equal(t, core.EventCallAccepted, got[0].event)
	assert.Equal(t, CallReplyPayload{Sender: "bob", Receiver: "alice"}, got[0].payload)

	// the session is gone, a second accept is dropped in strict mode
	tr.reset()
	_, err = o.AcceptCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	assert.ErrorIs(t, err, ErrNoRingingCall)
	assert.Empty(t, tr.deliveries())
}

func TestRejectAndCancel(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	o.Register("c2", "bob")

	_, err := o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	tr.reset()
	_, err = o.RejectCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{core.EventCallRejected}, events(tr.to("c1")))

	_, err = o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	tr.reset()
	_, err = o.CancelCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	got := tr.to("c2")
	require.Len(t, got, 1)
	assert.Equal(t, core.EventCallCanceled, got[0].event)
	assert.Equal(t, CallReplyPayload{Sender: "alice", Receiver: "bob"}, got[0].payload)
	assert.Empty(t, tr.to("c1"))
}

func TestStrictModeDropsUnknownResolution(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	o.Register("c2", "bob")

	_, err := o.AcceptCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	assert.ErrorIs(t, err, ErrNoRingingCall)
	_, err = o.CancelCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	assert.ErrorIs(t, err, ErrNoRingingCall)
	assert.Empty(t, tr.deliveries())
}

func TestPermissiveModeForwardsUnknownResolution(t *testing.T) {
	o, tr := newTestOrch(t, false, 0)
	o.Register("c1", "alice")

	res, err := o.AcceptCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, []string{core.EventCallAccepted}, events(tr.to("c1")))

	// addressed party offline: silently dropped
	res, err = o.CancelCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Offline)
}

func TestIncomingCall_SelfCall(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	_, err := o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "alice"})
	assert.ErrorIs(t, err, ErrSelfCall)
	assert.Empty(t, tr.deliveries())
}

func TestIncomingCall_DeliveryFailure(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	o.Register("c2", "bob")
	tr.fail["c2"] = core.ErrConnectionClosed

	res, err := o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	assert.ErrorIs(t, err, ErrReceiverUnreachable)
	assert.ErrorIs(t, err, core.ErrConnectionClosed)
	assert.Contains(t, res.Dropped, core.ConnID("c2"))
	assert.Zero(t, o.Calls.Count())

	got := tr.to("c1")
	require.Len(t, got, 1)
	assert.Equal(t, CallFailedPayload{Receiver: "bob", Reason: domain.ReasonUnreachable}, got[0].payload)
	assert.Empty(t, tr.kicked, "closed connections are not kicked")
}

func TestRingTimeout(t *testing.T) {
	o, tr := newTestOrch(t, true, 20*time.Millisecond)
	o.Register("c1", "alice")
	o.Register("c2", "bob")

	_, err := o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(tr.to("c1")) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	got := tr.to("c1")
	require.Len(t, got, 1, "exactly one callFailed after timeout")
	assert.Equal(t, CallFailedPayload{Receiver: "bob", Reason: domain.ReasonNoAnswer}, got[0].payload)
	assert.Equal(t, []string{core.EventIncomingCall, core.EventCallCanceled}, events(tr.to("c2")))

	_, err = o.AcceptCall(domain.CallReply{Caller: "alice", Callee: "bob"})
	assert.ErrorIs(t, err, ErrNoRingingCall)
}

func TestDisconnectWhileRinging(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	o.Register("c2", "bob")
	o.Register("c3", "carol")

	_, err := o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	_, err = o.IncomingCall(domain.CallRing{Caller: "carol", Callee: "bob"})
	require.NoError(t, err)
	tr.reset()

	// callee leaves: both callers learn about it
	o.OnDisconnect("c2")
	for _, conn := range []core.ConnID{"c1", "c3"} {
		got := tr.to(conn)
		require.Len(t, got, 1)
		assert.Equal(t, core.EventCallFailed, got[0].event)
		assert.Equal(t, CallFailedPayload{Receiver: "bob", Reason: domain.ReasonDisconnected}, got[0].payload)
	}
	assert.Zero(t, o.Calls.Count())

	// caller leaves: callee gets callCanceled
	o.Register("c2", "bob")
	_, err = o.IncomingCall(domain.CallRing{Caller: "alice", Callee: "bob"})
	require.NoError(t, err)
	tr.reset()
	o.OnDisconnect("c1")
	got := tr.to("c2")
	require.Len(t, got, 1)
	assert.Equal(t, core.EventCallCanceled, got[0].event)
	assert.Equal(t, CallReplyPayload{Sender: "alice", Receiver: "bob"}, got[0].payload)
}

func TestRelayMedia(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c2", "bob")

	res := o.RelayMedia(core.EventCallOffer, MediaPayload{Sender: "alice", Receiver: "bob", SDP: "v=0"})
	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, []string{core.EventCallOffer}, events(tr.to("c2")))

	res = o.RelayMedia(core.EventCallOffer, MediaPayload{Sender: "bob", Receiver: "bob"})
	assert.Zero(t, res.SendTo)
}
