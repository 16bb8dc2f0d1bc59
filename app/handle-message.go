package app

import (
	"fmt"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/encoders/envelopes/closeenvelope"
	"crosstown.dev/pkg/encoders/envelopes/eventenvelope"
	"crosstown.dev/pkg/encoders/envelopes/noticeenvelope"
	"crosstown.dev/pkg/encoders/envelopes/reqenvelope"
	"crosstown.dev/pkg/utils/normalize"
)

// HandleMessage identifies and dispatches one client message. Protocol
// errors produce a NOTICE and leave the connection open.
func (l *Listener) HandleMessage(msg []byte) {
	log.D.C(
		func() string {
			return fmt.Sprintf("%s received message:\n%s", l.remote, msg)
		},
	)
	var err error
	var t string
	var rem []byte
	if t, rem, err = envelopes.Identify(msg); !chk.E(err) {
		switch t {
		case reqenvelope.L:
			err = l.HandleReq(rem)
		case closeenvelope.L:
			err = l.HandleClose(rem)
		case eventenvelope.L:
			// writes are paid: they arrive as packets on the business
			// logic server, never over the relay socket
			err = normalize.Unsupported.Errorf(
				"event submission is payment gated; submit via the BLS handle-packet endpoint",
			)
		default:
			err = normalize.Invalid.Errorf("unknown envelope type %q", t)
		}
	} else {
		err = normalize.Invalid.Errorf("malformed message")
	}
	if err != nil {
		log.D.F("notice->%s %s", l.remote, err)
		if err = noticeenvelope.NewFrom(err.Error()).Write(l); chk.E(err) {
			return
		}
	}
}
