package app

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickConnection
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(conn core.ConnID, event string) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.ConnID, string) BackpressureAction {
	return p.Action
}

// ParsePolicy maps the slow_client_policy config value to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{Action: KickConnection}, nil
	case "drop":
		return SimplePolicy{Action: DropFrame}, nil
	default:
		return nil, fmt.Errorf("unknown slow client policy %q", name)
	}
}
