package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"paperstage/internal/script/parser"
)

var ErrNotFound = errors.New("session: not found")

// Session holds one paper's journey from upload to synthesized script.
type Session struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Paper     string            `json:"-"`
	Script    string            `json:"script,omitempty"`
	Sentences []parser.Sentence `json:"sentences,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store keeps sessions in memory with a TTL sweep. Sessions also die by
// explicit Delete; expiry only catches the abandoned ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	log      *logrus.Entry
	stop     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      logrus.WithField("component", "sessions"),
		stop:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Create opens a session for an uploaded paper.
func (s *Store) Create(title, paper string) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Title:     title,
		Paper:     paper,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.WithField("session", sess.ID).Debug("session created")
	return sess
}

// Get returns a snapshot of the session. Callers get a copy taken under
// the lock, so concurrent SetScript calls never race with readers.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

// SetScript attaches a generated script and its parsed sentences.
func (s *Store) SetScript(id, script string, sentences []parser.Sentence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Script = script
	sess.Sentences = sentences
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns snapshots of all live sessions, unordered.
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		out = append(out, &cp)
	}
	return out
}

// Close stops the background sweep.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweep() {
	ticker := time.NewTicker(s.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			removed := 0
			for id, sess := range s.sessions {
				if sess.UpdatedAt.Before(cutoff) {
					delete(s.sessions, id)
					removed++
				}
			}
			s.mu.Unlock()
			if removed > 0 {
				s.log.WithField("removed", removed).Info("swept expired sessions")
			}
		}
	}
}
