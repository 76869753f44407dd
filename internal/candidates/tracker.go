// Package candidates keeps the small set of values that a membership filter reported as
// possibly repeated, keyed by their exact field bytes.
package candidates

import (
	"github.com/arloliu/bitrec/errs"
)

type entry struct {
	key  string
	seen bool
}

// Tracker maps value hashes to the exact keys that produced them. Distinct keys sharing
// a hash are kept side by side and flagged as a collision.
type Tracker struct {
	entries      map[uint64][]entry // Hash → keys with that hash
	count        int
	hasCollision bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[uint64][]entry)}
}

func (t *Tracker) find(hash uint64, key []byte) (int, bool) {
	for i, e := range t.entries[hash] {
		if e.key == string(key) {
			return i, true
		}
	}

	return 0, false
}

// Track adds key under hash. It returns ErrDuplicateValue if the key is already tracked.
func (t *Tracker) Track(key []byte, hash uint64) error {
	list, exists := t.entries[hash]
	if exists {
		if _, ok := t.find(hash, key); ok {
			return errs.ErrDuplicateValue
		}
		// same hash, different key
		t.hasCollision = true
	}

	t.entries[hash] = append(list, entry{key: string(key)})
	t.count++

	return nil
}

// Sighting records an occurrence of key. It reports whether key is tracked at all and
// whether it had already been sighted.
func (t *Tracker) Sighting(key []byte, hash uint64) (tracked, repeated bool) {
	i, ok := t.find(hash, key)
	if !ok {
		return false, false
	}

	list := t.entries[hash]
	if list[i].seen {
		return true, true
	}
	list[i].seen = true

	return true, false
}

// HasCollision returns true if two tracked keys share a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Count returns the number of tracked keys.
func (t *Tracker) Count() int {
	return t.count
}
