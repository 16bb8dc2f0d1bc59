package app

import (
	"context"
	"net/http"

	"github.com/puzpuzpuz/xsync/v3"

	"crosstown.dev/app/config"
	"crosstown.dev/pkg/database"
	"crosstown.dev/pkg/protocol/publish"
)

// Server is the relay front-end: it upgrades websocket connections into
// Listeners serving the subscription protocol out of the shared event
// store. Writes never arrive here; they flow through the business logic
// server, which shares the same store and publisher.
type Server struct {
	Ctx        context.Context
	Config     *config.C
	publishers *publish.S
	listeners  *xsync.MapOf[string, *Listener]
	*database.D
}

// NewServer assembles the relay front-end around the shared store and
// publish fan-out.
func NewServer(
	ctx context.Context, cfg *config.C, db *database.D, publishers *publish.S,
) (s *Server) {
	return &Server{
		Ctx:        ctx,
		Config:     cfg,
		publishers: publishers,
		listeners:  xsync.NewMapOf[string, *Listener](),
		D:          db,
	}
}

// ServeHTTP upgrades websocket requests on any path and serves the relay
// information document to clients that ask for it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Upgrade") == "websocket" {
		s.HandleWebsocket(w, r)
		return
	}
	if r.Header.Get("Accept") == "application/nostr+json" {
		s.HandleRelayInfo(w, r)
		return
	}
	http.Error(w, "Upgrade required", http.StatusUpgradeRequired)
}

// GetRemoteFromReq derives the client address, preferring the forwarding
// header a fronting proxy sets.
func GetRemoteFromReq(r *http.Request) (remote string) {
	remote = r.Header.Get("X-Forwarded-For")
	if remote == "" {
		remote = r.RemoteAddr
	}
	return
}
