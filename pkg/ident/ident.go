package ident

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a new lexicographically sortable ULID string. Safe for
// concurrent use; ids generated within the same millisecond stay ordered
// thanks to the monotonic entropy source.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}

// IsValid reports whether s is a well-formed entity identifier.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)
