package database

import (
	"bytes"
	"testing"

	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/filter"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/kind"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/encoders/timestamp"
	"crosstown.dev/pkg/utils"
	"crosstown.dev/pkg/utils/values"
)

func tsPtr(v int64) *timestamp.T { return timestamp.FromUnix(v) }

func idFilter(id []byte) *filter.F {
	f := filter.New()
	f.Ids = tag.NewFromBytesSlice(hex.EncBytes(id))
	return f
}

func kindFilter(k uint16) *filter.F {
	f := filter.New()
	f.Kinds = kind.NewS(kind.New(k))
	return f
}

func TestQueryById(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	var stored []*event.E
	for i := range 5 {
		ev := mkEvent(t, sign, 1, int64(1000+i), "note")
		if admitted, err := db.SaveEvent(ctx, ev); err != nil || !admitted {
			t.Fatal(err)
		}
		stored = append(stored, ev)
	}
	target := stored[3]
	evs, err := db.QueryEvents(ctx, idFilter(target.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if !utils.FastEqual(evs[0].ID, target.ID) {
		t.Fatalf("wrong event: %x", evs[0].ID)
	}
}

func TestQueryByIdPrefix(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	var stored []*event.E
	for i := range 16 {
		ev := mkEvent(t, sign, 1, int64(1000+i), "note")
		if _, err := db.SaveEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
		stored = append(stored, ev)
	}
	// a one character (odd length) hex prefix
	prefix := hex.EncBytes(stored[0].ID)[:1]
	var want int
	for _, ev := range stored {
		if hex.EncBytes(ev.ID)[0] == prefix[0] {
			want++
		}
	}
	f := filter.New()
	f.Ids = tag.NewFromBytesSlice(prefix)
	evs, err := db.QueryEvents(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != want {
		t.Fatalf("prefix %s: expected %d events, got %d",
			prefix, want, len(evs))
	}
	for _, ev := range evs {
		if !bytes.HasPrefix(hex.EncBytes(ev.ID), prefix) {
			t.Fatalf("event %x does not match prefix %s", ev.ID, prefix)
		}
	}
}

func TestQueryOrderingAndLimit(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	timestamps := []int64{1500, 1100, 1900, 1300, 1700}
	for _, ts := range timestamps {
		ev := mkEvent(t, sign, 1, ts, "note")
		if _, err := db.SaveEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	evs, err := db.QueryEvents(ctx, kindFilter(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != len(timestamps) {
		t.Fatalf("expected %d events, got %d", len(timestamps), len(evs))
	}
	for i := 1; i < len(evs); i++ {
		if evs[i].CreatedAt > evs[i-1].CreatedAt {
			t.Fatal("results are not in descending created_at order")
		}
	}
	if evs[0].CreatedAt != 1900 {
		t.Fatalf("newest first: got %d", evs[0].CreatedAt)
	}
	f := kindFilter(1)
	f.Limit = values.ToUintPointer(2)
	if evs, err = db.QueryEvents(ctx, f); err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("limit ignored: got %d", len(evs))
	}
	if evs[0].CreatedAt != 1900 || evs[1].CreatedAt != 1700 {
		t.Fatal("limit did not keep the newest events")
	}
}

func TestQueryOrderingTieBreak(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	a := mkEvent(t, sign, 1, 1000, "one")
	b := mkEvent(t, sign, 1, 1000, "two")
	for _, ev := range []*event.E{a, b} {
		if _, err := db.SaveEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	evs, err := db.QueryEvents(ctx, kindFilter(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if string(evs[0].ID) > string(evs[1].ID) {
		t.Fatal("created_at tie not broken by ascending id")
	}
}

func TestQueryByAuthorAndKind(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	s1 := newSigner(t)
	s2 := newSigner(t)
	if _, err := db.SaveEvent(ctx, mkEvent(t, s1, 1, 1000, "s1 note")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveEvent(ctx, mkEvent(t, s1, 7, 1100, "s1 reaction")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveEvent(ctx, mkEvent(t, s2, 1, 1200, "s2 note")); err != nil {
		t.Fatal(err)
	}
	f := filter.New()
	f.Authors = tag.NewFromBytesSlice(hex.EncBytes(s1.Pub()))
	f.Kinds = kind.NewS(kind.New(1))
	evs, err := db.QueryEvents(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if !utils.FastEqual(evs[0].Pubkey, s1.Pub()) || evs[0].Kind != 1 {
		t.Fatal("wrong event matched")
	}
	// author prefix without kinds
	f2 := filter.New()
	f2.Authors = tag.NewFromBytesSlice(hex.EncBytes(s2.Pub())[:8])
	if evs, err = db.QueryEvents(ctx, f2); err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || !utils.FastEqual(evs[0].Pubkey, s2.Pub()) {
		t.Fatal("author prefix query failed")
	}
}

func TestQueryByTagValue(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	tagged := mkEvent(t, sign, 1, 1000, "tagged",
		tag.NewFromAny("r", "wss://a.example.com"))
	other := mkEvent(t, sign, 1, 1100, "untagged")
	for _, ev := range []*event.E{tagged, other} {
		if _, err := db.SaveEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	f := filter.New()
	f.Tags.Append(tag.NewFromAny("r", "wss://a.example.com"))
	evs, err := db.QueryEvents(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || !utils.FastEqual(evs[0].ID, tagged.ID) {
		t.Fatalf("tag query returned %d events", len(evs))
	}
}

func TestQuerySinceUntil(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	for _, ts := range []int64{1000, 2000, 3000} {
		if _, err := db.SaveEvent(
			ctx, mkEvent(t, sign, 1, ts, "note"),
		); err != nil {
			t.Fatal(err)
		}
	}
	f := kindFilter(1)
	f.Since = tsPtr(2000)
	f.Until = tsPtr(2000)
	evs, err := db.QueryEvents(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	// bounds are inclusive
	if len(evs) != 1 || evs[0].CreatedAt != 2000 {
		t.Fatalf("inclusive window failed: %d results", len(evs))
	}
}

func TestQueryForFiltersDisjunction(t *testing.T) {
	db, ctx, _ := setupTestDB(t)
	sign := newSigner(t)
	note := mkEvent(t, sign, 1, 1000, "note")
	reaction := mkEvent(t, sign, 7, 1100, "reaction")
	for _, ev := range []*event.E{note, reaction} {
		if _, err := db.SaveEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	// both filters match the note; it must be counted once
	f1 := kindFilter(1)
	f2 := filter.New()
	f2.Authors = tag.NewFromBytesSlice(hex.EncBytes(sign.Pub()))
	evs, err := db.QueryForFilters(ctx, filter.S{f1, f2})
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("disjunction returned %d events, want 2", len(evs))
	}
	// the smallest limit named by any filter caps the merged result
	f2.Limit = values.ToUintPointer(1)
	if evs, err = db.QueryForFilters(ctx, filter.S{f1, f2}); err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("limit across filters failed: %d", len(evs))
	}
	if evs[0].CreatedAt != 1100 {
		t.Fatal("limit did not keep the newest event")
	}
}
