package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionStore keeps analyses in memory until their TTL elapses
type SessionStore struct {
	data   map[uuid.UUID]*sessionEntry
	ttl    time.Duration
	mu     sync.RWMutex
	now    func() time.Time
	cron   *cron.Cron
	logger *zap.Logger
}

// sessionEntry represents a stored analysis with expiration
type sessionEntry struct {
	value      *Analysis
	expiration time.Time
}

// NewSessionStore creates a new session store
func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		data:   make(map[uuid.UUID]*sessionEntry),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// TTL returns how long a stored analysis lives
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Put stores an analysis and stamps its expiry
func (s *SessionStore) Put(a *Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration := s.now().Add(s.ttl)
	a.ExpiresAt = expiration
	s.data[a.ID] = &sessionEntry{value: a, expiration: expiration}
}

// Get retrieves an analysis that has not yet expired
func (s *SessionStore) Get(id uuid.UUID) (*Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[id]
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiration) {
		return nil, false
	}
	return entry.value, true
}

// Delete removes an analysis and reports whether it was present
func (s *SessionStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

// Size returns the number of stored entries, expired or not
func (s *SessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// RemoveExpired drops expired entries and returns how many were removed
func (s *SessionStore) RemoveExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.data {
		if now.After(entry.expiration) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// StartSweeper schedules RemoveExpired with a cron spec such as "@every 1m"
func (s *SessionStore) StartSweeper(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("session sweeper already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("Session sweeper started", zap.String("schedule", schedule), zap.Duration("ttl", s.ttl))
	return nil
}

// StopSweeper stops the cron job and waits for a running sweep to finish
func (s *SessionStore) StopSweeper() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	ctx := c.Stop()
	<-ctx.Done()
	s.logger.Info("Session sweeper stopped")
}

func (s *SessionStore) sweep() {
	if removed := s.RemoveExpired(); removed > 0 {
		s.logger.Debug("Expired analyses removed", zap.Int("count", removed))
	}
}
