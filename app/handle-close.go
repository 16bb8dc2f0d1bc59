package app

import (
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/encoders/envelopes/closeenvelope"
	"crosstown.dev/pkg/utils/normalize"
)

// HandleClose processes a CLOSE envelope, cancelling the named
// subscription. Closing a subscription that does not exist, or closing one
// twice, is a silent no-op.
func (l *Listener) HandleClose(req []byte) (err error) {
	var rem []byte
	env := closeenvelope.New()
	if rem, err = env.Unmarshal(req); chk.E(err) {
		return normalize.Invalid.Errorf("CLOSE: %s", err.Error())
	}
	if len(rem) > 0 {
		log.T.F("extra '%s'", rem)
	}
	if len(env.ID) == 0 {
		return normalize.Invalid.Errorf("CLOSE has no subscription id")
	}
	l.publishers.Receive(
		&W{
			Listener: l,
			Cancel:   true,
			Id:       string(env.ID),
		},
	)
	return
}
