package orch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	conn    core.ConnID
	event   string
	payload any
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   []delivery
	fail   map[core.ConnID]error
	kicked []core.ConnID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: make(map[core.ConnID]error)}
}

func (f *fakeTransport) Deliver(conn core.ConnID, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[conn]; ok {
		return err
	}
	f.sent = append(f.sent, delivery{conn: conn, event: event, payload: payload})
	return nil
}

func (f *fakeTransport) Disconnect(conn core.ConnID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, conn)
}

func (f *fakeTransport) deliveries() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery(nil), f.sent...)
}

func (f *fakeTransport) to(conn core.ConnID) []delivery {
	var out []delivery
	for _, d := range f.deliveries() {
		if d.conn == conn {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

func newTestOrch(t *testing.T, strict bool, ringTimeout time.Duration) (*Orchestrator, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	calls := app.NewCallTracker(ringTimeout)
	t.Cleanup(calls.Stop)
	o := New(Options{
		Presence:  app.NewPresenceRegistry(),
		Calls:     calls,
		Transport: tr,
		Policy:    app.SimplePolicy{Action: app.KickConnection},
		Strict:    strict,
	})
	return o, tr
}

func TestSendMessage_Scenario(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")
	o.Register("c2", "bob")

	msg := domain.DirectMessage{Sender: "alice", SenderName: "Alice", Receiver: "bob", Body: "hi"}
	res := o.SendMessage(msg)
	assert.Equal(t, 1, res.SendTo)

	got := tr.to("c2")
	require.Len(t, got, 1)
	assert.Equal(t, core.EventNotification, got[0].event)
	assert.Equal(t, NotificationPayload{SenderName: "Alice", Message: "hi", Type: domain.ChatDirect}, got[0].payload)

	o.OnDisconnect("c2")
	tr.reset()
	res = o.SendMessage(msg)
	assert.Zero(t, res.SendTo)
	assert.Equal(t, 1, res.Offline)
	assert.Empty(t, tr.deliveries())
}

func TestSendMessage_UnregisteredReceiver(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "alice")

	res := o.SendMessage(domain.DirectMessage{Sender: "alice", Receiver: "ghost", Body: "hello?"})
	assert.Zero(t, res.SendTo)
	assert.Empty(t, tr.deliveries())
}

func TestReRegisterRoutesToNewestConnection(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("c1", "bob")
	o.Register("c2", "bob")

	o.SendMessage(domain.DirectMessage{Sender: "alice", Receiver: "bob", Body: "x"})
	assert.Empty(t, tr.to("c1"))
	assert.Len(t, tr.to("c2"), 1)

	// the stale connection closing must not unregister bob
	o.OnDisconnect("c1")
	assert.True(t, o.Online("bob"))
}

func TestSendGroupMessage(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("ca", "A")
	o.Register("cb", "B")

	res := o.SendGroupMessage(domain.GroupMessage{
		Sender:     "A",
		SenderName: "Ann",
		GroupName:  "team",
		Members:    []domain.Identity{"A", "B", "C", "B"},
		Body:       "standup",
	})
	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, 1, res.Offline)
	assert.Empty(t, tr.to("ca"), "sender never receives its own group message")

	got := tr.to("cb")
	require.Len(t, got, 1)
	group := "team"
	assert.Equal(t, NotificationPayload{SenderName: "Ann", Message: "standup", GroupName: &group, Type: domain.ChatGroup}, got[0].payload)
}

func TestNotificationGroupNameOnWire(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("cb", "B")

	o.SendGroupMessage(domain.GroupMessage{Sender: "A", Members: []domain.Identity{"B"}, Body: "hi"})
	o.SendMessage(domain.DirectMessage{Sender: "A", Receiver: "B", Body: "hi"})

	got := tr.to("cb")
	require.Len(t, got, 2)
	group, err := json.Marshal(got[0].payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"senderName":"","message":"hi","groupName":"","type":"group"}`, string(group))
	dm, err := json.Marshal(got[1].payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"senderName":"","message":"hi","type":"dm"}`, string(dm))
}

func TestTyping(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("ca", "A")
	o.Register("cb", "B")
	o.Register("cc", "C")

	o.Typing(domain.TypingSignal{ChatType: domain.ChatDirect, Sender: "A", Receiver: "B"})
	got := tr.to("cb")
	require.Len(t, got, 1)
	assert.Equal(t, core.EventTyping, got[0].event)
	assert.Equal(t, TypingPayload{Sender: "A"}, got[0].payload)

	tr.reset()
	res := o.Typing(domain.TypingSignal{ChatType: domain.ChatGroup, Sender: "A", GroupID: "g1", Members: []domain.Identity{"A", "B", "C"}})
	assert.Equal(t, 2, res.SendTo)
	assert.Empty(t, tr.to("ca"))
	require.Len(t, tr.to("cc"), 1)
	assert.Equal(t, TypingPayload{Sender: "A", GroupID: "g1"}, tr.to("cc")[0].payload)

	tr.reset()
	o.StopTyping(domain.TypingSignal{ChatType: domain.ChatDirect, Sender: "A", Receiver: "B"})
	got = tr.to("cb")
	require.Len(t, got, 1)
	assert.Equal(t, core.EventStopTyping, got[0].event)
	assert.Nil(t, got[0].payload)
}

func TestTyping_EmptyGroupIsNoop(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("ca", "A")

	assert.NotPanics(t, func() {
		o.Typing(domain.TypingSignal{ChatType: domain.ChatGroup, Sender: "A", GroupID: "g1"})
		o.StopTyping(domain.TypingSignal{ChatType: domain.ChatGroup, Sender: "A", GroupID: "g1", Members: []domain.Identity{}})
		o.Typing(domain.TypingSignal{ChatType: "broadcast", Sender: "A"})
	})
	assert.Empty(t, tr.deliveries())
}

func TestBackpressureKicksConnection(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Register("cb", "B")
	tr.fail["cb"] = core.ErrBackpressure

	res := o.SendMessage(domain.DirectMessage{Sender: "A", Receiver: "B", Body: "x"})
	assert.Equal(t, []core.ConnID{"cb"}, res.Dropped)
	assert.Equal(t, []core.ConnID{"cb"}, tr.kicked)
}

func TestBackpressureDropPolicy(t *testing.T) {
	o, tr := newTestOrch(t, true, 0)
	o.Policy = app.SimplePolicy{Action: app.DropFrame}
	o.Register("cb", "B")
	tr.fail["cb"] = core.ErrBackpressure

	o.SendMessage(domain.DirectMessage{Sender: "A", Receiver: "B", Body: "x"})
	assert.Empty(t, tr.kicked)
}
