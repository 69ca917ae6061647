package core

import "errors"

// Frame is a raw encoded payload ready for the wire.
type Frame []byte

var (
	ErrBackpressure      = errors.New("backpressure")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrUnknownConnection = errors.New("unknown connection")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
