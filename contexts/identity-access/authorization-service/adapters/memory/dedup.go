package memory

import (
	"context"
	"sync"
	"time"

	"aegis/contexts/identity-access/authorization-service/ports"
)

// DedupStore is a size-capped in-memory event dedup set. When the cap is
// reached the oldest reservation is evicted, so very old duplicates may be
// reprocessed; handlers stay idempotent to absorb that.
type DedupStore struct {
	// Clock times out stale reservations; nil falls back to the wall clock.
	Clock ports.Clock

	mu         sync.Mutex
	maxEntries int
	entries    map[string]dedupEntry
	order      []string
}

type dedupEntry struct {
	PayloadHash string
	ExpiresAt   time.Time
}

func NewDedupStore(maxEntries int) *DedupStore {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &DedupStore{
		maxEntries: maxEntries,
		entries:    make(map[string]dedupEntry),
	}
}

// ReserveEvent returns true when the event was already processed and its
// reservation has not expired.
func (d *DedupStore) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.entries[eventID]; ok {
		if existing.ExpiresAt.After(d.now()) {
			return true, nil
		}
		delete(d.entries, eventID)
		d.removeFromOrder(eventID)
	}

	for len(d.entries) >= d.maxEntries && len(d.order) > 0 {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.entries, oldest)
	}

	d.entries[eventID] = dedupEntry{PayloadHash: payloadHash, ExpiresAt: expiresAt}
	d.order = append(d.order, eventID)
	return false, nil
}

func (d *DedupStore) now() time.Time {
	if d.Clock != nil {
		return d.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *DedupStore) removeFromOrder(eventID string) {
	for i, id := range d.order {
		if id == eventID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}
