package app

import (
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// PresenceRegistry maps identities to their live connection.
// A reverse index keeps disconnect cleanup proportional to the identities
// bound to that connection.
type PresenceRegistry struct {
	mu     sync.RWMutex
	byID   map[domain.Identity]core.ConnID
	byConn map[core.ConnID]map[domain.Identity]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byID:   make(map[domain.Identity]core.ConnID),
		byConn: make(map[core.ConnID]map[domain.Identity]struct{}),
	}
}

// Register binds id to conn. A previous binding for id is overwritten; the
// previous connection stays open but no longer receives traffic for id.
func (r *PresenceRegistry) Register(id domain.Identity, conn core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[id]; ok && prev != conn {
		r.detachLocked(prev, id)
		log.Info().Str("module", "app.presence").Str("identity", id.String()).Str("prev_conn", string(prev)).Str("conn", string(conn)).Msg("identity moved")
	}
	r.byID[id] = conn
	set, ok := r.byConn[conn]
	if !ok {
		set = make(map[domain.Identity]struct{}, 1)
		r.byConn[conn] = set
	}
	set[id] = struct{}{}
	log.Info().Str("module", "app.presence").Str("identity", id.String()).Str("conn", string(conn)).Int("online", len(r.byID)).Msg("registered")
}

func (r *PresenceRegistry) Lookup(id domain.Identity) (core.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byID[id]
	return conn, ok
}

// RemoveByConnection drops every identity currently bound to conn and
// returns them. Identities already re-registered elsewhere are untouched.
func (r *PresenceRegistry) RemoveByConnection(conn core.ConnID) []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byConn[conn]
	if !ok {
		return nil
	}
	delete(r.byConn, conn)
	out := make([]domain.Identity, 0, len(set))
	for id := range set {
		if r.byID[id] == conn {
			delete(r.byID, id)
			out = append(out, id)
		}
	}
	log.Info().Str("module", "app.presence").Str("conn", string(conn)).Int("removed", len(out)).Int("online", len(r.byID)).Msg("connection removed")
	return out
}

// IdentitiesOf returns the identities currently bound to conn.
func (r *PresenceRegistry) IdentitiesOf(conn core.ConnID) []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byConn[conn]
	out := make([]domain.Identity, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Len returns the number of online identities.
func (r *PresenceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Connections returns the number of connections bound to at least one
// identity.
func (r *PresenceRegistry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func (r *PresenceRegistry) detachLocked(conn core.ConnID, id domain.Identity) {
	set, ok := r.byConn[conn]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.byConn, conn)
	}
}
