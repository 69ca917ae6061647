// Package metrics records relay activity. The default Recorder is a no-op;
// NewPrometheus exports counters through client_golang.
package metrics

// Delivery outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeOffline = "offline"
	OutcomeDropped = "dropped"
)

type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	EventReceived(event string)
	Delivery(event, outcome string)
	CallTransition(status string)
	RateLimited()
}

type Noop struct{}

func (Noop) ConnectionOpened()       {}
func (Noop) ConnectionClosed()       {}
func (Noop) EventReceived(string)    {}
func (Noop) Delivery(string, string) {}
func (Noop) CallTransition(string)   {}
func (Noop) RateLimited()            {}
