package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesCapacity(t *testing.T) {
	l := New()
	now := time.Now()
	for i := 0; i < 3; i++ {
		if !l.allowAt("k", 3, 1, now) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.allowAt("k", 3, 1, now) {
		t.Fatal("bucket exhausted, request should be denied")
	}
}

func TestRefillRestoresTokens(t *testing.T) {
	l := New()
	now := time.Now()
	for i := 0; i < 2; i++ {
		l.allowAt("k", 2, 1, now)
	}
	if l.allowAt("k", 2, 1, now) {
		t.Fatal("expected denial before refill")
	}
	if !l.allowAt("k", 2, 1, now.Add(1500*time.Millisecond)) {
		t.Fatal("expected allow after refill")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	now := time.Now()
	if !l.allowAt("a", 1, 0, now) {
		t.Fatal("first key should be allowed")
	}
	if l.allowAt("a", 1, 0, now) {
		t.Fatal("first key should now be exhausted")
	}
	if !l.allowAt("b", 1, 0, now) {
		t.Fatal("second key has its own bucket")
	}
}
