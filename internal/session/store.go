package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrFull     = errors.New("session limit reached")
)

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	log      *slog.Logger
	now      func() time.Time

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewStore creates a store. max <= 0 means unlimited; ttl <= 0 disables
// eviction.
func NewStore(ttl time.Duration, max int, log *slog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
		log:      log,
		now:      time.Now,
	}
}

// Create registers a new empty session. When the store is full, expired
// sessions are evicted first.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.sessions) >= s.max {
		s.cleanupLocked()
		if len(s.sessions) >= s.max {
			return nil, ErrFull
		}
	}
	sess := newSession(uuid.NewString(), s.now())
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns the session and marks it active.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

func (s *Store) cleanupLocked() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastActive()) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Start runs the eviction loop until ctx is cancelled or Stop is called.
func (s *Store) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	interval := 5 * time.Minute
	if s.ttl > 0 && s.ttl/2 < interval {
		interval = max(s.ttl/2, time.Second)
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					s.log.Info("evicted idle sessions", "count", n, "remaining", s.Len())
				}
			}
		}
	}()
	s.log.Info("session store started", "ttl", s.ttl.String(), "max_sessions", s.max)
}

// Stop ends the eviction loop and waits for it to exit.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
		s.log.Info("session store stopped")
	})
}
