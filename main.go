package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/profile"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/app"
	"crosstown.dev/app/config"
	"crosstown.dev/pkg/database"
	"crosstown.dev/pkg/protocol/publish"
	"crosstown.dev/pkg/spider"
	"crosstown.dev/pkg/version"
)

func main() {
	var err error
	var cfg *config.C
	if cfg, err = config.New(); chk.E(err) {
		os.Exit(1)
	}
	log.I.F("starting %s %s", cfg.AppName, version.V)
	switch cfg.Pprof {
	case "cpu":
		prof := profile.Start(profile.CPUProfile)
		defer prof.Stop()
	case "memory":
		prof := profile.Start(profile.MemProfile)
		defer prof.Stop()
	case "allocation":
		prof := profile.Start(profile.MemProfileAllocs)
		defer prof.Stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	var db *database.D
	if db, err = database.New(ctx, cfg.DataDir, cfg.DBLogLevel); chk.E(err) {
		os.Exit(1)
	}
	var quit chan struct{}
	var publishers *publish.S
	if publishers, quit, err = app.Run(ctx, cfg, db); chk.E(err) {
		cancel()
		chk.E(db.Close())
		os.Exit(1)
	}
	var mirror *spider.Spider
	if len(cfg.UpstreamRelays) > 0 {
		mirror = spider.New(
			ctx, db, cfg.UpstreamRelays,
			spider.FilterForKinds(cfg.SpiderFilterKinds, 30*24*time.Hour),
			spider.WithPublisher(publishers),
		)
		mirror.Start()
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case <-sigs:
		fmt.Printf("\r")
	case <-quit:
	}
	cancel()
	if mirror != nil {
		mirror.Unsubscribe()
	}
	chk.E(db.Close())
}
