// Package ids generates record identifiers.
package ids

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator returns a fresh id on every call.
type Generator interface {
	NewID() string
}

// Func adapts a function to a Generator.
type Func func() string

// NewID calls f.
func (f Func) NewID() string { return f() }

// UUID generates random 32-character hex ids.
type UUID struct{}

// NewID returns a dashless UUIDv4.
func (UUID) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequence returns a generator producing prefix1, prefix2, ...
func Sequence(prefix string) Generator {
	var (
		mu sync.Mutex
		n  int
	)
	return Func(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + strconv.Itoa(n)
	})
}
