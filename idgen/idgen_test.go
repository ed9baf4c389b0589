package idgen

import (
	"strings"
	"testing"
)

func TestNanoID_Length(t *testing.T) {
	for _, length := range []int{8, 12, 16, 32} {
		id := NanoID(length)()
		if len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
	}
}

func TestNanoID_Alphabet(t *testing.T) {
	id := NanoID(100)()
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			t.Fatalf("NanoID: unexpected character %q in %q", c, id)
		}
	}
}

func TestDigits(t *testing.T) {
	id := Digits(10)()
	if len(id) != 10 {
		t.Fatalf("Digits(10): got %q", id)
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			t.Fatalf("Digits: unexpected character %q", c)
		}
	}
}

func TestSessionID_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := SessionID()
		if _, ok := seen[id]; ok {
			t.Fatalf("SessionID: duplicate at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	if parts := strings.Split(id, "-"); len(parts) != 5 {
		t.Fatalf("UUIDv7: expected 5 parts in %q", id)
	}
	if len(id) != 36 {
		t.Fatalf("UUIDv7: expected length 36, got %d", len(id))
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("evt_", NanoID(8))()
	if !strings.HasPrefix(id, "evt_") || len(id) != 12 {
		t.Fatalf("Prefixed: got %q", id)
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence("a", "b")
	got := []string{gen(), gen(), gen()}
	want := []string{"a", "b", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sequence[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}
