package database

import (
	"bytes"
	"testing"

	"crosstown.dev/pkg/encoders/event"
)

func TestExportImportRoundTrip(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	var stored []*event.E
	for i := range 10 {
		ev := mkEvent(t, sign, 1, int64(1000+i), "exported note")
		if admitted, err := db.SaveEvent(ctx, ev); err != nil || !admitted {
			t.Fatal(err)
		}
		stored = append(stored, ev)
	}
	var buf bytes.Buffer
	if err := db.Export(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	if lines := bytes.Count(buf.Bytes(), []byte{'\n'}); lines != len(stored) {
		t.Fatalf("exported %d lines, want %d", lines, len(stored))
	}
	db2, ctx2, _ := setupTestDB(t)
	n, err := db2.Import(ctx2, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if n != len(stored) {
		t.Fatalf("imported %d events, want %d", n, len(stored))
	}
	for _, ev := range stored {
		got, err := db2.GetEventById(ev.ID)
		if err != nil || got == nil {
			t.Fatalf("event %x missing after import", ev.ID)
		}
	}
}

func TestImportSkipsInvalidLines(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	ev := mkEvent(t, sign, 1, 1000, "good")
	bad := mkEvent(t, sign, 1, 1001, "bad")
	bad.Sig[0] ^= 0xff
	var buf bytes.Buffer
	buf.Write(ev.Marshal(nil))
	buf.WriteByte('\n')
	buf.WriteString("not json at all\n")
	buf.Write(bad.Marshal(nil))
	buf.WriteByte('\n')
	n, err := db.Import(ctx, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("imported %d events, want 1", n)
	}
	if got, _ := db.GetEventById(bad.ID); got != nil {
		t.Fatal("event with an invalid signature was imported")
	}
}
