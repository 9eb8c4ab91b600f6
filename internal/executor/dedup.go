// Package executor holds trade execution guards used by the bot.
package executor

import (
	"sync"
	"time"
)

// Dedup suppresses repeat trade intents within a time-to-live window. Keys
// are the intent's (market, side, amount) triple, so an identical trade is
// executed at most once per window rather than accumulating in an unbounded
// seen-set for the life of the process. Safe for concurrent use.
type Dedup struct {
	seen map[string]time.Time // intent key -> last seen time
	ttl  time.Duration
	mu   sync.Mutex
	now  func() time.Time
}

// NewDedup creates a Dedup that considers an intent a duplicate if its key
// has been seen within the given ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Seen reports whether key was marked within the TTL window. It never
// records the key: an intent that fails validation or live submission must
// not block a later retry, so marking is the caller's explicit step after a
// trade actually lands.
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	lastSeen, ok := d.seen[key]
	return ok && d.now().Sub(lastSeen) < d.ttl
}

// Mark records key as executed now, starting its suppression window.
func (d *Dedup) Mark(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[key] = d.now()
}

// Cleanup removes entries that have expired beyond the TTL. The bot calls it
// once per cycle to keep the map bounded.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}

// Len returns the number of tracked keys.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
