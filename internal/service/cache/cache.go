package cache

import "time"

// BytesCache is the shared cache level behind the in-process TTLCache.
// Values are raw bytes; a miss is (nil, false, nil).
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
	DeleteBytes(key string) error
}
