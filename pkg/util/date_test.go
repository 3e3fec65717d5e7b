package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeCanonical(t *testing.T) {
	s := "2026-02-12T06:18:35Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatUTC(got) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2025, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestNextHourBoundary(t *testing.T) {
	entry := time.Date(2026, 2, 12, 12, 30, 0, 0, time.UTC)
	want := time.Date(2026, 2, 12, 13, 0, 0, 0, time.UTC)
	if got := NextHourBoundary(entry); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	// An entry exactly on a boundary still waits for the next one.
	onBoundary := time.Date(2026, 2, 12, 12, 0, 0, 0, time.UTC)
	want = time.Date(2026, 2, 12, 13, 0, 0, 0, time.UTC)
	if got := NextHourBoundary(onBoundary); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
