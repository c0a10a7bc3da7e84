package session

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps sessions in process memory. Tests and throwaway
// hosts use it; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, sess.Summary())
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (s *MemoryStore) Close() error { return nil }

// sortSummaries orders newest first, ties broken by name for stable
// listings.
func sortSummaries(summaries []Summary) {
	slices.SortFunc(summaries, func(a, b Summary) int {
		switch {
		case a.UpdatedAt.After(b.UpdatedAt):
			return -1
		case b.UpdatedAt.After(a.UpdatedAt):
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})
}
