package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds live sessions by id. Sessions idle longer than ttl are
// dropped by Sweep and onExpire is called with their id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	onExpire func(id string)
}

func NewStore(ttl time.Duration, onExpire func(id string)) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		onExpire: onExpire,
	}
}

// Create starts a new session with a random id.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := newSession(uuid.NewString(), s.now())
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session and marks it as seen. The touch happens under
// the store lock so a concurrent Sweep cannot drop a session it hands out.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// GetOrCreate returns the session for id, or a fresh one when id is
// unknown or expired. created reports the latter.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	return s.Create(), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes idle sessions and returns how many were dropped. A session
// with a run in progress is never dropped.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	var expired []string
	s.mu.Lock()
	for id, sess := range s.sessions {
		if !sess.idleSince().Before(cutoff) {
			continue
		}
		if !sess.run.TryLock() {
			continue
		}
		delete(s.sessions, id)
		sess.run.Unlock()
		expired = append(expired, id)
	}
	s.mu.Unlock()

	if s.onExpire != nil {
		for _, id := range expired {
			s.onExpire(id)
		}
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
