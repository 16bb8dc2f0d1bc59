package app

import (
	"context"
	"sync"
	"time"

	"lol.mleku.dev/log"

	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/filter"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/interfaces/publisher"
	"crosstown.dev/pkg/interfaces/typer"
)

// Type tags control messages for the websocket publisher.
const Type = "socketapi"

// Subscription is one (connection, subId) registration: the filters it
// matches and the channel its live events queue on. done is closed exactly
// once, when the subscription is cancelled, replaced, or its connection
// goes away.
type Subscription struct {
	Id       string
	Filters  *filter.S
	Receiver event.C
	done     chan struct{}
	once     sync.Once
}

// Done exposes the cancellation signal of the subscription.
func (sub *Subscription) Done() <-chan struct{} { return sub.done }

func (sub *Subscription) cancel() {
	sub.once.Do(func() { close(sub.done) })
}

// Map is subscriptions keyed by connection then subscription id.
type Map map[*Listener]map[string]*Subscription

// W is the control message for the websocket publisher: registration of a
// subscription, cancellation of one, or cancellation of a whole listener.
type W struct {
	*Listener

	// If Cancel is true, this is a close command: cancel the named
	// subscription, or every subscription of the listener when Id is
	// empty.
	Cancel bool

	// Id is the subscription id.
	Id string

	// Sub is the subscription being registered when Cancel is false.
	Sub *Subscription
}

func (w *W) Type() string { return Type }

// P manages the websocket subscriptions and delivers admitted events to
// the ones whose filters match.
type P struct {
	c  context.Context
	Mx sync.RWMutex
	Map
}

var _ publisher.I = &P{}

// NewPublisher creates the websocket publisher.
func NewPublisher(c context.Context) (p *P) {
	return &P{
		c:   c,
		Map: make(Map),
	}
}

func (p *P) Type() string { return Type }

// Receive handles subscription control messages. Registering a subId that
// already exists on the connection replaces the prior subscription, which
// is cancelled.
func (p *P) Receive(msg typer.T) {
	m, ok := msg.(*W)
	if !ok {
		return
	}
	if m.Cancel {
		if m.Id == "" {
			p.removeListener(m.Listener)
		} else {
			p.removeSubscription(m.Listener, m.Id)
		}
		return
	}
	p.Mx.Lock()
	subs, ok := p.Map[m.Listener]
	if !ok {
		subs = make(map[string]*Subscription)
		p.Map[m.Listener] = subs
	}
	prior := subs[m.Id]
	subs[m.Id] = m.Sub
	p.Mx.Unlock()
	if prior != nil {
		prior.cancel()
	}
	log.D.F("subscription %s registered for %s", m.Id, m.Listener.remote)
}

// Deliver queues an event on every live subscription whose filters match.
// A subscriber that cannot drain its queue within the write timeout is
// dropped rather than allowed to stall the fan-out.
func (p *P) Deliver(ev *event.E) {
	type target struct {
		l   *Listener
		sub *Subscription
	}
	p.Mx.RLock()
	var targets []target
	for l, subs := range p.Map {
		for _, sub := range subs {
			if sub.Filters.Match(ev) {
				targets = append(targets, target{l, sub})
			}
		}
	}
	p.Mx.RUnlock()
	if len(targets) == 0 {
		return
	}
	log.D.F("delivering event %s to %d subscriptions",
		hex.Enc(ev.ID), len(targets))
	for _, t := range targets {
		select {
		case t.sub.Receiver <- ev:
		case <-t.sub.done:
		case <-p.c.Done():
			return
		case <-time.After(DefaultWriteTimeout):
			log.W.F(
				"subscription %s at %s stalled; dropping it",
				t.sub.Id, t.l.remote,
			)
			p.removeSubscription(t.l, t.sub.Id)
		}
	}
}

// removeSubscription cancels and forgets one subscription; unknown ids are
// a silent no-op.
func (p *P) removeSubscription(l *Listener, id string) {
	p.Mx.Lock()
	var sub *Subscription
	if subs, ok := p.Map[l]; ok {
		sub = subs[id]
		delete(subs, id)
		if len(subs) == 0 {
			delete(p.Map, l)
		}
	}
	p.Mx.Unlock()
	if sub != nil {
		sub.cancel()
	}
}

// removeListener cancels and forgets every subscription of a connection.
func (p *P) removeListener(l *Listener) {
	p.Mx.Lock()
	subs := p.Map[l]
	delete(p.Map, l)
	p.Mx.Unlock()
	for _, sub := range subs {
		sub.cancel()
	}
}
