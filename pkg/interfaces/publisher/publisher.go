// Package publisher defines the fan-out interface event producers deliver
// admitted events through.
package publisher

import (
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/interfaces/typer"
)

// I is a subscription manager that can receive control messages and deliver
// events to matching subscribers.
type I interface {
	typer.T
	Deliver(ev *event.E)
	Receive(msg typer.T)
}

// Publishers is a list of publisher implementations.
type Publishers []I
