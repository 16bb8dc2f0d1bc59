// Package publish multiplexes a set of publisher implementations behind a
// single delivery point: every admitted event is handed to Deliver exactly
// once, and each transport's publisher fans it out to its own subscribers.
package publish

import (
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/interfaces/publisher"
	"crosstown.dev/pkg/interfaces/typer"
)

// S is the control structure for the subscription management scheme.
type S struct {
	publisher.Publishers
}

// New creates a new publish.S.
func New(p ...publisher.I) (s *S) {
	s = &S{Publishers: p}
	return
}

var _ publisher.I = &S{}

func (s *S) Type() string { return "publish" }

// Deliver hands an event to every registered publisher.
func (s *S) Deliver(ev *event.E) {
	for _, p := range s.Publishers {
		p.Deliver(ev)
	}
}

// Receive routes a control message to the publisher whose type matches.
func (s *S) Receive(msg typer.T) {
	t := msg.Type()
	for _, p := range s.Publishers {
		if p.Type() == t {
			p.Receive(msg)
			return
		}
	}
}
