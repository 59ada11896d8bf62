package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"geosismica/internal/logger"
)

// MemorySessionRepository keeps sessions in process memory and expires them
// after ttl of inactivity. Nothing is written to disk.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// NewMemorySessionRepository starts the store and its cleanup goroutine.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return newMemorySessionRepository(ttl, time.Now)
}

func newMemorySessionRepository(ttl time.Duration, now func() time.Time) *MemorySessionRepository {
	r := &MemorySessionRepository{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      now,
		done:     make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

func (r *MemorySessionRepository) Create(ctx context.Context) (*Session, error) {
	s := &Session{ID: uuid.New().String(), UpdatedAt: r.now()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed() {
		return nil, ErrRepositoryClosed
	}
	r.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || r.expired(s) {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed() {
		return ErrRepositoryClosed
	}
	if _, ok := r.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	cp := *s
	cp.UpdatedAt = r.now()
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the cleanup goroutine and drops all sessions.
func (r *MemorySessionRepository) Close() error {
	r.once.Do(func() {
		close(r.done)
		r.mu.Lock()
		r.sessions = make(map[string]*Session)
		r.mu.Unlock()
	})
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (r *MemorySessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *MemorySessionRepository) cleanupLoop() {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.WithFields(logrus.Fields{
					"expired":   n,
					"remaining": r.Len(),
				}).Debug("Expired sessions removed")
			}
		case <-r.done:
			return
		}
	}
}

func (r *MemorySessionRepository) expired(s *Session) bool {
	return r.now().Sub(s.UpdatedAt) > r.ttl
}

func (r *MemorySessionRepository) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
