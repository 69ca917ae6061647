package domain

import "time"

type CallID string

type CallStatus int

const (
	CallRinging CallStatus = iota
	CallAccepted
	CallRejected
	CallCanceled
	CallFailed
)

func (s CallStatus) String() string {
	switch s {
	case CallRinging:
		return "ringing"
	case CallAccepted:
		return "accepted"
	case CallRejected:
		return "rejected"
	case CallCanceled:
		return "canceled"
	case CallFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the ringing phase.
func (s CallStatus) Terminal() bool { return s != CallRinging }

// Reasons carried by callFailed.
const (
	ReasonNotConnected = "User not connected"
	ReasonUnreachable  = "User unreachable"
	ReasonNoAnswer     = "No answer"
	ReasonDisconnected = "User disconnected"
)

// Call is one voice-call attempt between two identities.
// Caller always names the party that rang, Callee the party that was rung,
// whatever the wire fields of a given event are called.
type Call struct {
	ID         CallID
	Caller     Identity
	Callee     Identity
	CallerName string
	Channel    string
	Status     CallStatus
	StartedAt  time.Time
	EndedAt    time.Time
}

// Involves reports whether id is either party of the call.
func (c Call) Involves(id Identity) bool {
	return c.Caller == id || c.Callee == id
}

// Peer returns the other party of the call.
func (c Call) Peer(id Identity) Identity {
	if c.Caller == id {
		return c.Callee
	}
	return c.Caller
}
