package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/app/config"
	"crosstown.dev/pkg/database"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/kind"
	"crosstown.dev/pkg/encoders/toon"
	"crosstown.dev/pkg/pricing"
	"crosstown.dev/pkg/protocol/ilp"
	"crosstown.dev/pkg/protocol/publish"
)

// BLS is the business logic server, the single entry point for writes: it
// receives prepared interledger packets whose data is an encoded event,
// verifies and prices the event, commits it, and answers with the
// fulfillment that settles the payment.
type BLS struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cfg        *config.C
	pricing    *pricing.C
	db         *database.D
	publishers *publish.S
	srv        *http.Server
	wg         sync.WaitGroup
}

// NewBLS assembles the business logic server. The pricing table is parsed
// and validated here; bad pricing configuration refuses to start rather
// than misprice writes.
func NewBLS(
	ctx context.Context, cfg *config.C, db *database.D,
	publishers *publish.S,
) (b *BLS, err error) {
	var pc *pricing.C
	if pc, err = pricing.FromConfig(
		cfg.BasePricePerByte, cfg.KindOverrides, cfg.SPSPMinPrice,
		cfg.OwnerPubkey,
	); chk.E(err) {
		return
	}
	c, cancel := context.WithCancel(ctx)
	b = &BLS{
		ctx:        c,
		cancel:     cancel,
		cfg:        cfg,
		pricing:    pc,
		db:         db,
		publishers: publishers,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/handle-packet", b.HandlePacket)
	mux.HandleFunc("/healthz", b.handleHealthz)
	mux.HandleFunc("/export", b.handleExport)
	mux.HandleFunc("/import", b.handleImport)
	b.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Listen, cfg.BLSPort),
		Handler: mux,
	}
	return
}

// Handler exposes the BLS mux, mainly so tests can drive it through
// httptest.
func (b *BLS) Handler() http.Handler { return b.srv.Handler }

// Start begins serving packets.
func (b *BLS) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		log.I.F("BLS listening on http://%s", b.srv.Addr)
		if err := b.srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.E.F("BLS server error: %v", err)
		}
	}()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		<-b.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 2*time.Second,
		)
		defer cancel()
		_ = b.srv.Shutdown(shutdownCtx)
	}()
}

// Stop shuts the server down and waits for it.
func (b *BLS) Stop() {
	b.cancel()
	b.wg.Wait()
}

// HandlePacket runs the packet state machine: decode, verify, price,
// store, fulfill. Every rejection carries an ILP code, a message, and
// enough metadata for the sender to correct the call.
func (b *BLS) HandlePacket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ilp.PacketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.reject(w, ilp.CodeBadRequest, "malformed packet request: "+
			err.Error(), nil)
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		b.reject(w, ilp.CodeBadRequest, "data is not valid base64: "+
			err.Error(), nil)
		return
	}
	var ev *event.E
	if ev, err = toon.Decode(raw); err != nil {
		b.reject(w, ilp.CodeBadRequest, err.Error(), nil)
		return
	}
	var ok bool
	if ok, err = ev.Verify(); err != nil || !ok {
		b.reject(w, ilp.CodeBadRequest, "Invalid event signature", nil)
		return
	}
	if !b.pricing.IsOwner(ev.Pubkey) {
		required := b.pricing.PriceFor(len(raw), ev.Kind)
		if ev.Kind == kind.SPSPRequest.K && b.pricing.SPSPMinPrice != nil &&
			b.pricing.SPSPMinPrice.Cmp(required) < 0 {
			// allow zero-amount handshakes regardless of packet size
			required = b.pricing.SPSPMinPrice
		}
		amount, aok := new(big.Int).SetString(req.Amount, 10)
		if !aok || amount.Sign() < 0 {
			b.reject(w, ilp.CodeBadRequest,
				"amount is not a non-negative integer: "+req.Amount, nil)
			return
		}
		if amount.Cmp(required) < 0 {
			b.reject(w, ilp.CodeInsufficientAmount,
				"insufficient payment amount",
				&ilp.RejectMetadata{
					Required: required.String(),
					Received: amount.String(),
				},
			)
			return
		}
	} else {
		log.D.F("owner bypass for event %s", hex.Enc(ev.ID))
	}
	// a resubmitted id still fulfills: the fulfillment is a function of
	// the id alone
	duplicate := false
	if ser, serr := b.db.GetSerialById(ev.ID); serr == nil && ser != nil {
		duplicate = true
	}
	var admitted bool
	if admitted, err = b.db.SaveEvent(b.ctx, ev); err != nil {
		log.E.F("store failed for %s: %v", hex.Enc(ev.ID), err)
		b.reject(w, ilp.CodeInternalError, "event store failure", nil)
		return
	}
	if admitted {
		b.publishers.Deliver(ev)
	}
	accept := ilp.Accept{
		Accept:      true,
		Fulfillment: ilp.FulfillmentB64(ev.ID),
		Metadata: ilp.AcceptMetadata{
			EventId:   hex.Enc(ev.ID),
			StoredAt:  time.Now().UnixMilli(),
			Duplicate: duplicate,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	chk.E(json.NewEncoder(w).Encode(accept))
	log.D.F("fulfilled packet for event %s (kind=%d, %d bytes, duplicate=%v)",
		hex.Enc(ev.ID), ev.Kind, len(raw), duplicate)
}

func (b *BLS) reject(
	w http.ResponseWriter, code, msg string, meta *ilp.RejectMetadata,
) {
	status := http.StatusBadRequest
	switch code {
	case ilp.CodeInsufficientAmount:
		status = http.StatusPaymentRequired
	case ilp.CodeInternalError:
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	chk.E(json.NewEncoder(w).Encode(ilp.Reject{
		Accept:   false,
		Code:     code,
		Message:  msg,
		Metadata: meta,
	}))
	log.D.F("rejected packet: %s %s", code, msg)
}

func (b *BLS) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleExport streams the store as JSONL for operators.
func (b *BLS) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set(
		"Content-Disposition",
		`attachment; filename="events-`+
			time.Now().UTC().Format("20060102-150405Z")+`.jsonl"`,
	)
	if err := b.db.Export(r.Context(), w); err != nil {
		log.E.F("export failed: %v", err)
	}
}

// handleImport ingests a JSONL stream of events; each line is verified the
// same way a paid write is, minus the payment.
func (b *BLS) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := b.db.Import(r.Context(), r.Body)
	if err != nil {
		log.E.F("import failed after %d events: %v", n, err)
		http.Error(w, "import failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"imported":%d}`+"\n", n)
}
