package session

import (
	"sync"
	"time"
)

// RevocationStore tracks revoked session token IDs in memory. Entries are
// cleaned up once their tokens would have naturally expired, since an expired
// token no longer needs explicit tracking. Thread-safe for concurrent access.
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // JTI -> natural expiry
	done    chan struct{}
}

// NewRevocationStore creates a new store and starts a background goroutine
// that cleans up expired entries every 5 minutes.
func NewRevocationStore() *RevocationStore {
	s := &RevocationStore{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Revoke adds a token's JTI to the revocation list. The expiresAt time
// indicates when the token would have naturally expired.
func (s *RevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
}

// IsRevoked checks if a token JTI has been revoked.
func (s *RevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[jti]
	return ok
}

// Count returns the number of currently revoked tokens.
func (s *RevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the background cleanup goroutine. It is safe to call
// multiple times but only the first call has effect.
func (s *RevocationStore) Close() {
	select {
	case <-s.done:
		// already closed
	default:
		close(s.done)
	}
}

func (s *RevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes revocation entries whose tokens have expired.
func (s *RevocationStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, jti)
		}
	}
}
