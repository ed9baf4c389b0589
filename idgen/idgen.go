// Package idgen provides pluggable ID generation.
//
// Constructors that mint identifiers (session manager, event logger, fake
// case API) accept a Generator so that tests can pin IDs and production can
// pick the strategy at startup.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

const (
	base36 = "0123456789abcdefghijklmnopqrstuvwxyz"
	digits = "0123456789"
)

// NanoID returns a Generator that produces base-36 IDs of the given length.
// Session cookies use it: short, URL-safe, crypto-random.
func NanoID(length int) Generator {
	return fromAlphabet(base36, length)
}

// Digits returns a Generator of numeric strings of the given length, used for
// human-readable case numbers in the fake interop backend.
func Digits(length int) Generator {
	return fromAlphabet(digits, length)
}

func fromAlphabet(alphabet string, length int) Generator {
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i := range buf {
			buf[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return string(buf)
	}
}

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID
// (e.g. "evt_", "case_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a deterministic Generator yielding ids in order and then
// repeating the last one. Intended for tests.
func Sequence(ids ...string) Generator {
	i := 0
	return func() string {
		if len(ids) == 0 {
			return ""
		}
		id := ids[min(i, len(ids)-1)]
		i++
		return id
	}
}

// Default is UUIDv7: time-sortable and globally unique.
var Default Generator = UUIDv7()

// SessionID is the generator used for session cookies: 32 base-36 characters.
var SessionID Generator = NanoID(32)

// New produces an ID using the Default generator.
func New() string {
	return Default()
}
