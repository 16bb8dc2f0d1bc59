package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/utils/units"
)

const (
	DefaultWriteTimeout   = 10 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultPingWait       = DefaultPongWait / 2
	DefaultMaxMessageSize = 1 * units.Mb
)

// HandleWebsocket upgrades the connection and runs its read loop until the
// client goes away. Every message is dispatched on its own goroutine; all
// of the connection's subscriptions are torn down when the loop exits,
// however it exits.
func (s *Server) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	remote := GetRemoteFromReq(r)
	log.T.F("handling websocket connection from %s", remote)
	ctx, cancel := context.WithCancel(s.Ctx)
	defer cancel()
	var err error
	var conn *websocket.Conn
	if conn, err = websocket.Accept(
		w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}},
	); chk.E(err) {
		return
	}
	conn.SetReadLimit(DefaultMaxMessageSize)
	defer conn.CloseNow()
	listener := &Listener{
		Server:    s,
		conn:      conn,
		ctx:       ctx,
		id:        uuid.NewString(),
		remote:    remote,
		req:       r,
		startTime: time.Now(),
	}
	s.listeners.Store(listener.id, listener)
	ticker := time.NewTicker(DefaultPingWait)
	go s.Pinger(ctx, conn, ticker, cancel)
	defer func() {
		log.D.F("closing websocket connection from %s after %v, %d messages",
			remote, time.Since(listener.startTime), listener.msgCount.Load())
		cancel()
		ticker.Stop()
		s.listeners.Delete(listener.id)
		listener.publishers.Receive(&W{Cancel: true, Listener: listener})
	}()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		var msg []byte
		if _, msg, err = conn.Read(ctx); err != nil {
			if strings.Contains(
				err.Error(), "use of closed network connection",
			) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure,
				websocket.StatusGoingAway,
				websocket.StatusNoStatusRcvd,
				websocket.StatusAbnormalClosure,
				websocket.StatusProtocolError:
			default:
				log.D.F("unexpected close error from %s: %v", remote, err)
			}
			return
		}
		listener.msgCount.Inc()
		go listener.HandleMessage(msg)
	}
}

// Pinger keeps the connection alive, cancelling it when a ping fails.
func (s *Server) Pinger(
	ctx context.Context, conn *websocket.Conn, ticker *time.Ticker,
	cancel context.CancelFunc,
) {
	defer func() {
		cancel()
		ticker.Stop()
	}()
	var err error
	for {
		select {
		case <-ticker.C:
			if err = conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
