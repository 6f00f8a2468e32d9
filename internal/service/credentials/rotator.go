package credentials

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrNoKeys is returned when a rotator is built without usable keys.
var ErrNoKeys = errors.New("no api keys configured")

// Rotator hands out API keys round-robin to spread calls across
// rate-limited credentials. Safe for concurrent use.
type Rotator struct {
	keys []string
	next atomic.Uint64
}

// NewRotator keeps the non-blank keys in their configured order.
func NewRotator(keys []string) (*Rotator, error) {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoKeys
	}
	return &Rotator{keys: clean}, nil
}

// Next returns the key after the previously returned one, wrapping around.
func (r *Rotator) Next() string {
	n := r.next.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len returns the number of keys in rotation.
func (r *Rotator) Len() int { return len(r.keys) }
