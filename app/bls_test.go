package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"crosstown.dev/app/config"
	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/database"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/toon"
	"crosstown.dev/pkg/protocol/ilp"
	"crosstown.dev/pkg/protocol/publish"
)

func testConfig() *config.C {
	return &config.C{
		AppName:          "crosstown-test",
		Listen:           "127.0.0.1",
		BLSPort:          3100,
		WSPort:           3334,
		BasePricePerByte: "10",
		LogLevel:         "error",
		DBLogLevel:       "error",
	}
}

func newTestBLS(t *testing.T, cfg *config.C) (
	*httptest.Server, *database.D, *publish.S,
) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	db, err := database.New(ctx, "", "error")
	if err != nil {
		t.Fatal(err)
	}
	publishers := publish.New(NewPublisher(ctx))
	bls, err := NewBLS(ctx, cfg, db, publishers)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(bls.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		db.Close()
	})
	return ts, db, publishers
}

func testSigner(t *testing.T) *p256k.Signer {
	t.Helper()
	sign := new(p256k.Signer)
	if err := sign.Generate(); err != nil {
		t.Fatal(err)
	}
	return sign
}

func postPacket(
	t *testing.T, url string, req ilp.PacketRequest,
) (status int, body []byte) {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(
		url+"/handle-packet", "application/json", bytes.NewReader(b),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, buf.Bytes()
}

func packetFor(t *testing.T, ev *event.E, amount string) ilp.PacketRequest {
	t.Helper()
	enc, err := toon.Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	return ilp.PacketRequest{
		Amount:      amount,
		Destination: "g.crosstown.relay",
		Data:        base64.StdEncoding.EncodeToString(enc),
	}
}

func exactAmount(t *testing.T, ev *event.E, perByte int) string {
	t.Helper()
	enc, err := toon.Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	return strconv.Itoa(len(enc) * perByte)
}

func TestExactPaymentAccepts(t *testing.T) {
	ts, db, _ := newTestBLS(t, testConfig())
	sign := testSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 128)
	if err != nil {
		t.Fatal(err)
	}
	status, body := postPacket(
		t, ts.URL, packetFor(t, ev, exactAmount(t, ev, 10)),
	)
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	var acc ilp.Accept
	if err = json.Unmarshal(body, &acc); err != nil {
		t.Fatal(err)
	}
	if !acc.Accept {
		t.Fatal("accept=false on an exact payment")
	}
	if acc.Fulfillment != ilp.FulfillmentB64(ev.ID) {
		t.Fatal("fulfillment is not bound to the event id")
	}
	// the returned fulfillment must hash to the sender's condition
	raw, err := base64.StdEncoding.DecodeString(acc.Fulfillment)
	if err != nil {
		t.Fatal(err)
	}
	var f [32]byte
	copy(f[:], raw)
	if ilp.Condition(f) != ilp.Condition(ilp.Fulfillment(ev.ID)) {
		t.Fatal("fulfillment does not settle the sender's condition")
	}
	if acc.Metadata.EventId != hex.Enc(ev.ID) {
		t.Fatalf("metadata names the wrong event: %s", acc.Metadata.EventId)
	}
	if acc.Metadata.StoredAt == 0 {
		t.Fatal("storedAt missing")
	}
	got, err := db.GetEventById(ev.ID)
	if err != nil || got == nil {
		t.Fatalf("event not stored: %v", err)
	}
}

func TestUnderpaymentRejects(t *testing.T) {
	ts, db, _ := newTestBLS(t, testConfig())
	sign := testSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 128)
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := toon.Encode(ev)
	required := len(enc) * 10
	under := strconv.Itoa(required - 1)
	status, body := postPacket(t, ts.URL, packetFor(t, ev, under))
	if status != http.StatusPaymentRequired {
		t.Fatalf("status %d: %s", status, body)
	}
	var rej ilp.Reject
	if err = json.Unmarshal(body, &rej); err != nil {
		t.Fatal(err)
	}
	if rej.Accept || rej.Code != ilp.CodeInsufficientAmount {
		t.Fatalf("wrong reject: %+v", rej)
	}
	if rej.Metadata == nil ||
		rej.Metadata.Required != strconv.Itoa(required) ||
		rej.Metadata.Received != under {
		t.Fatalf("wrong metadata: %+v", rej.Metadata)
	}
	if got, _ := db.GetEventById(ev.ID); got != nil {
		t.Fatal("underpaid event was stored")
	}
}

func TestOwnerBypass(t *testing.T) {
	sign := testSigner(t)
	cfg := testConfig()
	cfg.OwnerPubkey = hex.Enc(sign.Pub())
	ts, db, _ := newTestBLS(t, cfg)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 128)
	if err != nil {
		t.Fatal(err)
	}
	status, body := postPacket(t, ts.URL, packetFor(t, ev, "0"))
	if status != http.StatusOK {
		t.Fatalf("owner packet rejected: %d %s", status, body)
	}
	if got, _ := db.GetEventById(ev.ID); got == nil {
		t.Fatal("owner event not stored")
	}
	// a different author at amount zero still pays
	other := testSigner(t)
	ev2, err := event.GenerateRandomTextNoteEvent(other, 128)
	if err != nil {
		t.Fatal(err)
	}
	status, body = postPacket(t, ts.URL, packetFor(t, ev2, "0"))
	if status != http.StatusPaymentRequired {
		t.Fatalf("non-owner zero payment accepted: %d %s", status, body)
	}
}

func TestSPSPClamp(t *testing.T) {
	cfg := testConfig()
	cfg.SPSPMinPrice = "0"
	ts, db, _ := newTestBLS(t, cfg)
	sign := testSigner(t)
	ev, err := event.GenerateRandomEventOfKind(sign, 23194, 64)
	if err != nil {
		t.Fatal(err)
	}
	status, body := postPacket(t, ts.URL, packetFor(t, ev, "0"))
	if status != http.StatusOK {
		t.Fatalf("clamped SPSP handshake rejected: %d %s", status, body)
	}
	// ephemeral: fulfilled but never stored
	if got, _ := db.GetEventById(ev.ID); got != nil {
		t.Fatal("ephemeral SPSP request was persisted")
	}
}

func TestDuplicateResubmissionFulfills(t *testing.T) {
	ts, _, _ := newTestBLS(t, testConfig())
	sign := testSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 128)
	if err != nil {
		t.Fatal(err)
	}
	pkt := packetFor(t, ev, exactAmount(t, ev, 10))
	status, body := postPacket(t, ts.URL, pkt)
	if status != http.StatusOK {
		t.Fatalf("first submission rejected: %d %s", status, body)
	}
	var first ilp.Accept
	if err = json.Unmarshal(body, &first); err != nil {
		t.Fatal(err)
	}
	status, body = postPacket(t, ts.URL, pkt)
	if status != http.StatusOK {
		t.Fatalf("resubmission rejected: %d %s", status, body)
	}
	var second ilp.Accept
	if err = json.Unmarshal(body, &second); err != nil {
		t.Fatal(err)
	}
	if second.Fulfillment != first.Fulfillment {
		t.Fatal("resubmission produced a different fulfillment")
	}
	if !second.Metadata.Duplicate {
		t.Fatal("resubmission not flagged as duplicate")
	}
}

func TestMalformedPackets(t *testing.T) {
	ts, _, _ := newTestBLS(t, testConfig())
	sign := testSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 64)
	if err != nil {
		t.Fatal(err)
	}
	good := packetFor(t, ev, exactAmount(t, ev, 10))

	badB64 := good
	badB64.Data = "!!!not-base64!!!"

	truncated := good
	raw, _ := base64.StdEncoding.DecodeString(good.Data)
	truncated.Data = base64.StdEncoding.EncodeToString(raw[:len(raw)/2])

	badAmount := good
	badAmount.Amount = "12.5"

	negAmount := good
	negAmount.Amount = "-1"

	tampered := ev.Clone()
	tampered.Sig[0] ^= 0xff
	badSig := packetFor(t, tampered, exactAmount(t, ev, 10))

	for name, pkt := range map[string]ilp.PacketRequest{
		"bad base64": badB64,
		"truncated event": truncated,
		"bad amount": badAmount,
		"negative amount": negAmount,
		"tampered sig": badSig,
	} {
		status, body := postPacket(t, ts.URL, pkt)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: status %d: %s", name, status, body)
		}
		var rej ilp.Reject
		if err = json.Unmarshal(body, &rej); err != nil {
			t.Fatal(err)
		}
		if rej.Code != ilp.CodeBadRequest {
			t.Fatalf("%s: code %s", name, rej.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestBLS(t, testConfig())
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
}
