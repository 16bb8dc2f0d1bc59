package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/atomic"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"
)

// Listener is the per-connection state of the relay: the upgraded socket, a
// write lock so the request handler and the live fan-out do not interleave
// frames, and diagnostic counters.
type Listener struct {
	*Server
	conn      *websocket.Conn
	ctx       context.Context
	id        string
	remote    string
	req       *http.Request
	startTime time.Time

	writeMx sync.Mutex

	msgCount atomic.Int64
	reqCount atomic.Int64
}

// Ctx returns the listener's connection context.
func (l *Listener) Ctx() context.Context { return l.ctx }

// Write sends one text frame, serialized against concurrent writers on the
// same connection, with its own timeout so a cancelled connection context
// cannot corrupt an in-flight write.
func (l *Listener) Write(p []byte) (n int, err error) {
	l.writeMx.Lock()
	defer l.writeMx.Unlock()
	writeCtx, cancel := context.WithTimeout(
		context.Background(), DefaultWriteTimeout,
	)
	defer cancel()
	start := time.Now()
	if err = l.conn.Write(writeCtx, websocket.MessageText, p); err != nil {
		log.D.F("ws->%s write failed: len=%d %v", l.remote, len(p), err)
		chk.E(err)
		return
	}
	n = len(p)
	if d := time.Since(start); d > time.Millisecond*100 {
		log.D.F("ws->%s slow write: %v len=%d", l.remote, d, n)
	}
	return
}
