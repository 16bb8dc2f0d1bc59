// Package spider mirrors events from configured upstream relays into the
// local event store. It opens one subscription per upstream, verifies each
// received event before storing it, and treats store failures as
// non-fatal: upstream re-delivery is the recovery mechanism.
package spider

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/database"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/protocol/publish"
)

// OneTimeSyncMarker records that the initial backfill window was already
// mirrored, so restarts only follow the live edge.
const OneTimeSyncMarker = "spider_one_time_sync_completed"

// reconnectDelay spaces reconnection attempts to a dead upstream.
const reconnectDelay = 15 * time.Second

// Spider mirrors upstream relays into the local store.
type Spider struct {
	db     *database.D
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	relays     []string
	filter     nostr.Filter
	noVerify   bool
	publishers *publish.S
}

// Option adjusts spider behaviour.
type Option func(*Spider)

// WithoutVerification disables signature checking on mirrored events, for
// upstreams that are themselves trusted verifiers.
func WithoutVerification() Option {
	return func(s *Spider) { s.noVerify = true }
}

// WithPublisher fans mirrored events out to live local subscribers, the
// same way a paid write would.
func WithPublisher(p *publish.S) Option {
	return func(s *Spider) { s.publishers = p }
}

// New creates a spider mirroring the given upstream relay URLs with a
// caller-supplied filter.
func New(
	ctx context.Context, db *database.D, relays []string, f nostr.Filter,
	opts ...Option,
) *Spider {
	c, cancel := context.WithCancel(ctx)
	s := &Spider{
		db:     db,
		ctx:    c,
		cancel: cancel,
		relays: relays,
		filter: f,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FilterForKinds builds the upstream subscription filter: the listed kinds,
// or everything when the list is empty, from the backfill horizon forward.
func FilterForKinds(kinds []int, backfill time.Duration) (f nostr.Filter) {
	since := nostr.Timestamp(time.Now().Add(-backfill).Unix())
	f = nostr.Filter{Since: &since}
	if len(kinds) > 0 {
		f.Kinds = kinds
	}
	return
}

// Start launches one mirroring loop per upstream. It returns immediately;
// use Unsubscribe to stop.
func (s *Spider) Start() {
	if len(s.relays) == 0 {
		log.D.Ln("spider: no upstream relays configured")
		return
	}
	if !s.db.HasMarker(OneTimeSyncMarker) {
		if err := s.db.SetMarker(
			OneTimeSyncMarker,
			[]byte(strconv.FormatInt(time.Now().Unix(), 10)),
		); err != nil {
			log.E.F("spider: failed to set sync marker: %v", err)
		}
	} else {
		// already backfilled once; follow the live edge only
		since := nostr.Now()
		s.filter.Since = &since
	}
	log.I.F("spider: mirroring %d upstream relays", len(s.relays))
	for _, url := range s.relays {
		s.wg.Add(1)
		go s.run(url)
	}
}

// Unsubscribe stops all upstream subscriptions and waits for the loops to
// exit. Calling it again is a no-op.
func (s *Spider) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
		log.I.Ln("spider: unsubscribed from all upstreams")
	})
}

// run maintains one upstream subscription, reconnecting until the spider
// is cancelled.
func (s *Spider) run(url string) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		if err := s.mirror(url); err != nil {
			log.W.F("spider: %s: %v", url, err)
		}
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// mirror connects, subscribes and stores until the subscription ends.
func (s *Spider) mirror(url string) (err error) {
	var relay *nostr.Relay
	if relay, err = nostr.RelayConnect(s.ctx, url); err != nil {
		return
	}
	defer relay.Close()
	var sub *nostr.Subscription
	if sub, err = relay.Subscribe(
		s.ctx, nostr.Filters{s.filter},
	); err != nil {
		return
	}
	defer sub.Unsub()
	log.D.F("spider: subscribed to %s", url)
	for {
		select {
		case <-s.ctx.Done():
			return
		case nev, ok := <-sub.Events:
			if !ok {
				return
			}
			if nev == nil {
				continue
			}
			s.ingest(url, nev)
		}
	}
}

// ingest converts, verifies and stores one upstream event. Failures are
// logged and skipped.
func (s *Spider) ingest(url string, nev *nostr.Event) {
	ev, err := FromGoNostr(nev)
	if err != nil {
		log.W.F("spider: %s: undecodable event: %v", url, err)
		return
	}
	if !s.noVerify {
		ok, verr := ev.Verify()
		if verr != nil || !ok {
			log.W.F("spider: %s: invalid signature on %s, dropped",
				url, nev.ID)
			return
		}
	}
	admitted, err := s.db.SaveEvent(s.ctx, ev)
	if err != nil {
		log.E.F("spider: %s: store failed for %s: %v", url, nev.ID, err)
		return
	}
	if admitted {
		if s.publishers != nil {
			s.publishers.Deliver(ev)
		}
		log.T.F("spider: mirrored %s from %s", hex.Enc(ev.ID), url)
	}
}
