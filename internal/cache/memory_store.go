package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"surveyassist/internal/model"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// memoryStore keeps sessions as JSON so callers never share mutable state with it
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-process session store
func NewMemoryStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *memoryStore) Create(ctx context.Context, session *model.AnswerSession) (bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[session.ID]; ok && s.now().Before(e.expires) {
		return false, nil
	}
	s.entries[session.ID] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	return true, nil
}

func (s *memoryStore) Save(ctx context.Context, session *model.AnswerSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	s.mu.Lock()
	s.entries[session.ID] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*model.AnswerSession, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && !s.now().Before(e.expires) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var session model.AnswerSession
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
