package core

// ConnID is an opaque reference to one live transport session.
// The core never holds the connection object itself.
type ConnID string

// Deliverer is the transport primitive "deliver payload P to connection C".
// Implementations must be safe for concurrent use.
type Deliverer interface {
	// Deliver encodes payload under the event name and queues it on conn.
	// A nil payload is sent as a bare event.
	Deliver(conn ConnID, event string, payload any) error
	// Disconnect asks the transport to close conn. The transport reports the
	// close back through the normal disconnect path.
	Disconnect(conn ConnID)
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Offline int
	Dropped []ConnID
}

func (r *PublishResult) Merge(o PublishResult) {
	r.SendTo += o.SendTo
	r.Offline += o.Offline
	r.Dropped = append(r.Dropped, o.Dropped...)
}
