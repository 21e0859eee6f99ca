// Package session keeps per-browser state on the server: the backend session
// of a signed in visitor, pending notifications and view state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"portfolio-site/internal/backend"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient message shown once on the next rendered page.
type Notice struct {
	Kind        NoticeKind
	Title       string
	Description string
}

type state struct {
	// lock serialises work on one browser session across its requests.
	lock sync.Mutex

	backend *backend.Session
	notices []Notice
	values  map[string]interface{}
	touched time.Time
}

type Store struct {
	mu     sync.Mutex
	states map[string]*state
	broker *Broker
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(broker *Broker, idleTTL time.Duration) *Store {
	return &Store{
		states: make(map[string]*state),
		broker: broker,
		ttl:    idleTTL,
		now:    time.Now,
	}
}

func (s *Store) Broker() *Broker {
	return s.broker
}

// Create starts a new anonymous browser session.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.states[id] = &state{touched: s.now()}
	return id
}

// Touch reports whether id is a live session and marks it used.
func (s *Store) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if ok {
		st.touched = s.now()
	}
	return ok
}

// Session returns the backend session of id, or nil when signed out.
func (s *Store) Session(id string) *backend.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[id]; ok {
		return st.backend
	}
	return nil
}

// Exclusive runs fn holding the lock of session id, so concurrent requests
// from one browser (two tabs, say) take turns on its view state. An unknown
// id runs fn without a lock and reports false.
func (s *Store) Exclusive(id string, fn func()) bool {
	s.mu.Lock()
	st, ok := s.states[id]
	s.mu.Unlock()
	if !ok {
		fn()
		return false
	}
	st.lock.Lock()
	defer st.lock.Unlock()
	fn()
	return true
}

func (s *Store) SignIn(id string, session *backend.Session) {
	s.set(id, session, SignedIn)
}

func (s *Store) Refresh(id string, session *backend.Session) {
	s.set(id, session, TokenRefreshed)
}

// SignOut drops the backend session and the view state of id. Pending
// notices survive so the next page can explain what happened.
func (s *Store) SignOut(id string) {
	s.mu.Lock()
	st, ok := s.states[id]
	if ok {
		st.backend = nil
		st.values = nil
	}
	s.mu.Unlock()
	if ok {
		s.broker.Publish(Event{Type: SignedOut, SessionID: id})
	}
}

func (s *Store) set(id string, session *backend.Session, event EventType) {
	s.mu.Lock()
	st, ok := s.states[id]
	if !ok {
		st = &state{}
		s.states[id] = st
	}
	st.backend = session
	st.touched = s.now()
	s.mu.Unlock()
	s.broker.Publish(Event{Type: event, SessionID: id, Session: session})
}

func (s *Store) Notify(id string, notice Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[id]; ok {
		st.notices = append(st.notices, notice)
	}
}

// Drain returns and clears the pending notices of id.
func (s *Store) Drain(id string) []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return nil
	}
	notices := st.notices
	st.notices = nil
	return notices
}

func (s *Store) Value(id, key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok || st.values == nil {
		return nil, false
	}
	v, ok := st.values[key]
	return v, ok
}

func (s *Store) SetValue(id, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return
	}
	if st.values == nil {
		st.values = make(map[string]interface{})
	}
	st.values[key] = value
}

// Sweep removes sessions idle for longer than the store TTL and returns how
// many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, st := range s.states {
		if st.touched.Before(cutoff) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
