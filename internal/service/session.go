package service

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odclabs/kiosk/internal/domain"
)

// PipelineFactory builds a fresh pipeline for a new kiosk session.
type PipelineFactory func() *Pipeline

// Session binds one visitor's pipeline to their chosen language.
type Session struct {
	ID       string
	Language domain.Language
	Pipeline *Pipeline

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SetLanguage switches the session language mid-conversation. History
// is kept; only the response language changes.
func (s *Session) SetLanguage(lang domain.Language) {
	s.mu.Lock()
	s.Language = lang
	s.mu.Unlock()
}

// CurrentLanguage returns the session's active language.
func (s *Session) CurrentLanguage() domain.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Language
}

// SessionManager tracks live kiosk sessions and evicts the ones whose
// visitor walked away.
type SessionManager struct {
	factory PipelineFactory
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

const DefaultSessionIdleTTL = 30 * time.Minute

func NewSessionManager(factory PipelineFactory, idleTTL time.Duration) *SessionManager {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	return &SessionManager{
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session in the given language.
func (m *SessionManager) Create(lang domain.Language) *Session {
	s := &Session{
		ID:       uuid.New().String(),
		Language: lang,
		Pipeline: m.factory(),
		lastSeen: m.now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session by ID, refreshing its idle clock.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// GetOrCreate resumes the session when it still exists, otherwise
// starts a fresh one. The kiosk client treats session loss as a new
// conversation rather than an error.
func (m *SessionManager) GetOrCreate(id string, lang domain.Language) *Session {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s
		}
	}
	return m.Create(lang)
}

// Clear wipes the session's conversation memory without ending it.
func (m *SessionManager) Clear(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Pipeline.Clear()
	return nil
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops sessions idle past the TTL and reports how many.
func (m *SessionManager) EvictIdle() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("sessions: evicted %d idle sessions, %d remain", evicted, len(m.sessions))
	}
	return evicted
}
