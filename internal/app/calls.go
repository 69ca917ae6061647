package app

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

type callKey struct {
	caller domain.Identity
	callee domain.Identity
}

type ringingCall struct {
	call  domain.Call
	timer *time.Timer
}

// CallTracker holds calls that are still ringing. A call leaves the tracker
// on its first terminal transition; nothing is kept afterwards.
type CallTracker struct {
	mu          sync.Mutex
	calls       map[callKey]*ringingCall
	ringTimeout time.Duration
	onExpire    func(domain.Call)
	now         func() time.Time
}

// NewCallTracker creates a tracker. A zero ringTimeout lets calls ring
// until they are resolved.
func NewCallTracker(ringTimeout time.Duration) *CallTracker {
	return &CallTracker{
		calls:       make(map[callKey]*ringingCall),
		ringTimeout: ringTimeout,
		now:         time.Now,
	}
}

// OnExpire sets the callback fired once for each call that times out.
func (t *CallTracker) OnExpire(fn func(domain.Call)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Ring starts a call in Ringing. Ringing the same callee again replaces the
// previous attempt.
func (t *CallTracker) Ring(r domain.CallRing) (domain.Call, bool) {
	now := t.now()
	call := domain.Call{
		ID:         domain.CallID(ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()),
		Caller:     r.Caller,
		Callee:     r.Callee,
		CallerName: r.CallerName,
		Channel:    r.Channel,
		Status:     domain.CallRinging,
		StartedAt:  now,
	}
	key := callKey{caller: r.Caller, callee: r.Callee}
	rc := &ringingCall{call: call}

	t.mu.Lock()
	prev, replaced := t.calls[key]
	if replaced && prev.timer != nil {
		prev.timer.Stop()
	}
	if t.ringTimeout > 0 {
		rc.timer = time.AfterFunc(t.ringTimeout, func() { t.expire(key, rc) })
	}
	t.calls[key] = rc
	t.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(call.ID)).Str("caller", call.Caller.String()).Str("callee", call.Callee.String()).Bool("replaced", replaced).Msg("ringing")
	return call, replaced
}

// Resolve moves a ringing call to a terminal status and forgets it.
// It reports false when no such call is ringing.
func (t *CallTracker) Resolve(caller, callee domain.Identity, status domain.CallStatus) (domain.Call, bool) {
	if !status.Terminal() {
		return domain.Call{}, false
	}
	key := callKey{caller: caller, callee: callee}

	t.mu.Lock()
	rc, ok := t.calls[key]
	if !ok {
		t.mu.Unlock()
		return domain.Call{}, false
	}
	delete(t.calls, key)
	if rc.timer != nil {
		rc.timer.Stop()
	}
	rc.call.Status = status
	rc.call.EndedAt = t.now()
	t.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(rc.call.ID)).Str("status", status.String()).Msg("call resolved")
	return rc.call, true
}

// DropParty fails every ringing call that involves id.
func (t *CallTracker) DropParty(id domain.Identity) []domain.Call {
	t.mu.Lock()
	var out []domain.Call
	now := t.now()
	for key, rc := range t.calls {
		if !rc.call.Involves(id) {
			continue
		}
		delete(t.calls, key)
		if rc.timer != nil {
			rc.timer.Stop()
		}
		rc.call.Status = domain.CallFailed
		rc.call.EndedAt = now
		out = append(out, rc.call)
	}
	t.mu.Unlock()

	if len(out) > 0 {
		log.Info().Str("module", "app.calls").Str("identity", id.String()).Int("calls", len(out)).Msg("dropped calls of departed party")
	}
	return out
}

// Count returns the number of ringing calls.
func (t *CallTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// Stop halts every ring timer. Ringing calls are kept but never expire.
func (t *CallTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rc := range t.calls {
		if rc.timer != nil {
			rc.timer.Stop()
		}
	}
}

func (t *CallTracker) expire(key callKey, rc *ringingCall) {
	t.mu.Lock()
	cur, ok := t.calls[key]
	if !ok || cur != rc {
		t.mu.Unlock()
		return
	}
	delete(t.calls, key)
	rc.call.Status = domain.CallFailed
	rc.call.EndedAt = t.now()
	fn := t.onExpire
	t.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(rc.call.ID)).Dur("after", rc.call.EndedAt.Sub(rc.call.StartedAt)).Msg("ring timed out")
	if fn != nil {
		fn(rc.call)
	}
}
