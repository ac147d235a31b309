// Package idempotency replays the response of a create request retried with
// the same Idempotency-Key header.
package idempotency

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key has no live record.
var ErrNotFound = errors.New("idempotency record not found")

// sweepEvery bounds how often expired records are purged.
const sweepEvery = time.Minute

// Store keeps idempotency records in memory until they expire.
type Store struct {
	ttlWindow time.Duration
	nowFunc   func() time.Time

	mu        sync.Mutex
	records   map[string]*Record
	lastSweep time.Time
}

// NewStore returns a Store whose records live for ttlWindow.
func NewStore(ttlWindow time.Duration) *Store {
	return &Store{
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
		records:   map[string]*Record{},
	}
}

// CreateIfNotExists creates an IN_PROGRESS record for key.
// Returns (true, zero Record) when the record was created, and (false, copy
// of the live record) when key is already taken.
func (s *Store) CreateIfNotExists(key string) (bool, Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	s.sweep(now)

	if rec, ok := s.live(key, now); ok {
		return false, *rec
	}
	s.records[key] = &Record{
		Key:       key,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttlWindow),
	}
	return true, Record{}
}

// MarkDone stores the response to replay for key.
func (s *Store) MarkDone(key string, responseStatus int, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	rec, ok := s.live(key, now)
	if !ok {
		return ErrNotFound
	}
	rec.Status = StatusDone
	rec.ResponseStatus = responseStatus
	rec.ContentType = contentType
	rec.ResponseBody = append([]byte(nil), body...)
	rec.UpdatedAt = now
	return nil
}

// MarkFailed forgets key so that a retry runs again.
func (s *Store) MarkFailed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) live(key string, now time.Time) (*Record, bool) {
	rec, ok := s.records[key]
	if !ok {
		return nil, false
	}
	if !now.Before(rec.ExpiresAt) {
		delete(s.records, key)
		return nil, false
	}
	return rec, true
}

func (s *Store) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	s.lastSweep = now
	for key, rec := range s.records {
		if !now.Before(rec.ExpiresAt) {
			delete(s.records, key)
		}
	}
}
