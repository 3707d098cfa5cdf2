package session

import "sync"

// Store is the process-wide map from chat id to Session. A chat id never maps
// to more than one live Session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    Clock
}

// NewStore returns an empty Store whose sessions use clock (time.Now when nil).
func NewStore(clock Clock) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		clock:    clock,
	}
}

// GetOrCreate returns the Session for chatID, inserting a fresh one if absent.
func (s *Store) GetOrCreate(chatID string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[chatID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		return sess
	}
	sess = New(s.clock)
	s.sessions[chatID] = sess
	return sess
}

// Get returns the Session for chatID without creating one.
func (s *Store) Get(chatID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// Replace installs and returns a fresh Session for chatID, discarding any
// prior one.
func (s *Store) Replace(chatID string) *Session {
	sess := New(s.clock)
	s.mu.Lock()
	s.sessions[chatID] = sess
	s.mu.Unlock()
	return sess
}

// Remove deletes chatID. Unknown ids are ignored.
func (s *Store) Remove(chatID string) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

// removeIf deletes chatID only while it still maps to sess, so a session
// installed by Replace after a sweep scan survives that sweep.
func (s *Store) removeIf(chatID string, sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[chatID]; ok && cur == sess {
		delete(s.sessions, chatID)
		return true
	}
	return false
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// snapshot copies the current mapping so callers can inspect sessions
// without holding the store lock.
func (s *Store) snapshot() map[string]*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Session, len(s.sessions))
	for id, sess := range s.sessions {
		out[id] = sess
	}
	return out
}

//Personal.AI order the ending
