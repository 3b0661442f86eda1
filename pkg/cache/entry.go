package cache

import (
	"time"
)

// Entry is the envelope stored under every key.
type Entry struct {
	// Data is the JSON payload.
	Data []byte `json:"data"`

	// Expires is when the entry stops being fresh. Zero means never.
	Expires time.Time `json:"expires,omitempty"`

	// CachedAt is when the entry was written.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry is no longer fresh.
func (e *Entry) IsExpired() bool {
	if e.Expires.IsZero() {
		return false
	}
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired or if the entry never expires.
func (e *Entry) TTL() time.Duration {
	if e.Expires.IsZero() {
		return 0
	}
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the entry was written.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
