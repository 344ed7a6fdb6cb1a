package auth

import (
	"sync"
	"time"

	"github.com/keychainmdip/dex-market/internal/adapter"
	"github.com/keychainmdip/dex-market/internal/domain"
)

// ChallengeTable tracks pending logins: challenge DID -> the responder that
// completed it. Entries are both time-bounded (TTL) and size-bounded; when
// the table is full the oldest entry is evicted. This replaces the unbounded
// process-global login map the design notes warn about.
type ChallengeTable struct {
	mu      sync.Mutex
	entries map[domain.DID]*challengeEntry
	ttl     time.Duration
	max     int
	clock   adapter.Clock
}

type challengeEntry struct {
	responder domain.DID
	created   time.Time
}

// NewChallengeTable creates a bounded challenge table
func NewChallengeTable(ttl time.Duration, max int, clock adapter.Clock) *ChallengeTable {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 1024
	}
	return &ChallengeTable{
		entries: make(map[domain.DID]*challengeEntry),
		ttl:     ttl,
		max:     max,
		clock:   clock,
	}
}

// expireLocked drops stale entries; caller holds the lock
func (t *ChallengeTable) expireLocked() {
	now := t.clock.Now()
	for did, e := range t.entries {
		if now.Sub(e.created) > t.ttl {
			delete(t.entries, did)
		}
	}
}

// evictOldestLocked removes the single oldest entry; caller holds the lock
func (t *ChallengeTable) evictOldestLocked() {
	var oldest domain.DID
	var oldestTime time.Time
	for did, e := range t.entries {
		if oldest == "" || e.created.Before(oldestTime) {
			oldest = did
			oldestTime = e.created
		}
	}
	if oldest != "" {
		delete(t.entries, oldest)
	}
}

// Open registers a freshly issued challenge awaiting a response
func (t *ChallengeTable) Open(challenge domain.DID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked()
	if len(t.entries) >= t.max {
		t.evictOldestLocked()
	}
	t.entries[challenge] = &challengeEntry{created: t.clock.Now()}
}

// Complete records the responder for a verified challenge. Unknown or
// expired challenges are ignored: the wallet login simply has no browser
// session waiting for it any more.
func (t *ChallengeTable) Complete(challenge, responder domain.DID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked()
	if e, ok := t.entries[challenge]; ok {
		e.responder = responder
	}
}

// Responder returns the DID that completed a challenge, if any
func (t *ChallengeTable) Responder(challenge domain.DID) (domain.DID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked()
	e, ok := t.entries[challenge]
	if !ok || e.responder.Empty() {
		return "", false
	}
	return e.responder, true
}

// Drop removes a challenge, typically after the session is established
func (t *ChallengeTable) Drop(challenge domain.DID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, challenge)
}

// Len returns the number of live entries
func (t *ChallengeTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked()
	return len(t.entries)
}
