package app

import (
	"context"
	"time"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/encoders/envelopes/eoseenvelope"
	"crosstown.dev/pkg/encoders/envelopes/eventenvelope"
	"crosstown.dev/pkg/encoders/envelopes/reqenvelope"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/utils/bufpool"
	"crosstown.dev/pkg/utils/normalize"
)

const queryTimeout = 30 * time.Second

// HandleReq processes a REQ envelope: the subscription is registered first
// so nothing admitted during the stored query can be missed, then the
// stored results stream in order, then EOSE, then the live queue drains
// for as long as the subscription survives. Events sent before EOSE are
// not repeated after it.
func (l *Listener) HandleReq(msg []byte) (err error) {
	env := reqenvelope.New()
	if _, err = env.Unmarshal(msg); err != nil {
		return normalize.Invalid.Errorf("REQ: %s", err.Error())
	}
	if len(env.Subscription) == 0 {
		return normalize.Invalid.Errorf("REQ has no subscription id")
	}
	l.reqCount.Inc()
	sub := &Subscription{
		Id:       string(env.Subscription),
		Filters:  &env.Filters,
		Receiver: make(event.C, 256),
		done:     make(chan struct{}),
	}
	l.publishers.Receive(&W{Listener: l, Id: sub.Id, Sub: sub})
	// query the stored snapshot
	queryCtx, cancel := context.WithTimeout(l.ctx, queryTimeout)
	defer cancel()
	var evs event.S
	if evs, err = l.QueryForFilters(queryCtx, env.Filters); err != nil {
		log.E.F("REQ %s: query failed: %v", sub.Id, err)
		evs, err = nil, nil
	}
	seen := make(map[string]struct{}, len(evs))
	for _, ev := range evs {
		select {
		case <-sub.done:
			return
		default:
		}
		var res *eventenvelope.Result
		if res, err = eventenvelope.NewResultWith(
			env.Subscription, ev,
		); chk.E(err) {
			return
		}
		var b []byte
		if b, err = res.MarshalChecked(bufpool.Get().ToBytes()); err != nil {
			// never send a partial frame; drop the event instead
			bufpool.PutBytes(b)
			err = nil
			continue
		}
		_, err = l.Write(b)
		bufpool.PutBytes(b)
		if err != nil {
			return
		}
		seen[string(ev.ID)] = struct{}{}
	}
	if err = eoseenvelope.NewFrom(env.Subscription).Write(l); chk.E(err) {
		return
	}
	log.D.F("REQ %s: sent %d stored events to %s", sub.Id, len(evs), l.remote)
	go l.streamLive(sub, seen)
	return
}

// streamLive forwards the subscription's queued live events until it is
// cancelled. An event that fails to encode is dropped whole; the stream is
// never corrupted with a partial frame.
func (l *Listener) streamLive(sub *Subscription, seen map[string]struct{}) {
	for {
		select {
		case <-sub.done:
			return
		case <-l.ctx.Done():
			return
		case ev := <-sub.Receiver:
			if _, ok := seen[string(ev.ID)]; ok {
				// already sent in the stored snapshot
				continue
			}
			res, err := eventenvelope.NewResultWith(sub.Id, ev)
			if err != nil {
				continue
			}
			b, err := res.MarshalChecked(bufpool.Get().ToBytes())
			if err != nil {
				// drop this event whole rather than corrupt the stream
				bufpool.PutBytes(b)
				continue
			}
			_, err = l.Write(b)
			bufpool.PutBytes(b)
			if err != nil {
				log.D.F(
					"live delivery to %s sub %s failed: %v; cancelling",
					l.remote, sub.Id, err,
				)
				l.publishers.Receive(
					&W{Listener: l, Cancel: true, Id: sub.Id},
				)
				return
			}
			log.D.F("live event %s -> %s sub %s",
				hex.Enc(ev.ID), l.remote, sub.Id)
		}
	}
}
