package server

import (
	"sync"
	"time"
)

// requestStore keeps finished verification responses queryable for a short
// window so the console can fetch them by request id.
type requestStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]storedRequest

	lastCleanup time.Time
}

type storedRequest struct {
	response *verifyResponse
	created  time.Time
}

func newRequestStore(ttl time.Duration) *requestStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &requestStore{
		ttl:     ttl,
		entries: make(map[string]storedRequest),
	}
}

func (s *requestStore) Put(id string, resp *verifyResponse) {
	if id == "" || resp == nil {
		return
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked(now)
	s.entries[id] = storedRequest{response: resp, created: now}
}

func (s *requestStore) Get(id string) (*verifyResponse, bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked(now)
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.response, true
}

func (s *requestStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// cleanupLocked drops expired entries. Runs at most once per minute so hot
// paths don't pay for a full map scan on every call.
func (s *requestStore) cleanupLocked(now time.Time) {
	if now.Sub(s.lastCleanup) < time.Minute {
		return
	}
	s.lastCleanup = now
	for id, e := range s.entries {
		if now.Sub(e.created) > s.ttl {
			delete(s.entries, id)
		}
	}
}
