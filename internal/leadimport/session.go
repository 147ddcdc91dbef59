package leadimport

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/admitra/leadflow/internal/domain"
)

// SessionStore is the in-memory registry binding upload tokens to staged
// files between inspect and commit. Sessions are single-use: Consume removes
// the session atomically, and an eviction timer reaps (and deletes the
// staged file of) any session that is never consumed. No staged file
// outlives its session by more than the TTL.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	session domain.UploadSession
	timer   *time.Timer
}

// NewSessionStore creates a store with the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

// TTL returns the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create registers a session under its token and arms the eviction timer.
// CreatedAt and ExpiresAt are stamped by the store.
func (s *SessionStore) Create(session domain.UploadSession) domain.UploadSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session.CreatedAt = now
	session.ExpiresAt = now.Add(s.ttl)

	token := session.Token
	if existing, ok := s.sessions[token]; ok {
		existing.timer.Stop()
	}
	s.sessions[token] = &sessionEntry{
		session: session,
		timer: time.AfterFunc(s.ttl, func() {
			s.Expire(token, true)
		}),
	}
	return session
}

// Consume atomically removes and returns the session, cancelling its
// eviction timer. A session can be consumed exactly once; the staged file is
// left in place for the caller.
func (s *SessionStore) Consume(token string) (domain.UploadSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return domain.UploadSession{}, false
	}
	entry.timer.Stop()
	delete(s.sessions, token)
	return entry.session, true
}

// Expire removes the session and, when removeFile is set, deletes its staged
// file. Called by the eviction timer, or explicitly when a commit fails
// before consuming the session.
func (s *SessionStore) Expire(token string, removeFile bool) {
	s.mu.Lock()
	entry, ok := s.sessions[token]
	if ok {
		entry.timer.Stop()
		delete(s.sessions, token)
	}
	s.mu.Unlock()

	if !ok || !removeFile {
		return
	}
	if err := os.Remove(entry.session.StagedFilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("[import] failed to remove staged file %s: %v", entry.session.StagedFilePath, err)
	}
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
