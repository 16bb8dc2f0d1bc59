package app

import (
	"context"
	"fmt"
	"net/http"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/app/config"
	"crosstown.dev/pkg/database"
	"crosstown.dev/pkg/protocol/publish"
)

// Run starts the relay front-end and the business logic server over a
// shared store and a shared publish fan-out, and returns a quit channel
// that closes when the context is cancelled.
func Run(ctx context.Context, cfg *config.C, db *database.D) (
	publishers *publish.S, quit chan struct{}, err error,
) {
	quit = make(chan struct{})
	go func() {
		<-ctx.Done()
		log.I.F("shutting down")
		close(quit)
	}()
	publishers = publish.New(NewPublisher(ctx))
	relay := NewServer(ctx, cfg, db, publishers)
	var bls *BLS
	if bls, err = NewBLS(ctx, cfg, db, publishers); chk.E(err) {
		return
	}
	bls.Start()
	addr := fmt.Sprintf("%s:%d", cfg.Listen, cfg.WSPort)
	log.I.F("starting relay listener on ws://%s", addr)
	go func() {
		chk.E(http.ListenAndServe(addr, relay))
	}()
	return
}
