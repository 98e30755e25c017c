package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medsearch-ai/medsearch/schema"
)

// Memory keeps sessions in a map. Suitable for tests and single-process
// deployments without persistence requirements.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*schema.Session
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*schema.Session)}
}

func (m *Memory) Create(_ context.Context, query string) (*schema.Session, error) {
	now := time.Now()
	s := &schema.Session{
		ID:        uuid.New().String(),
		Query:     query,
		Status:    schema.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return copySession(s), nil
}

func (m *Memory) Get(_ context.Context, id string) (*schema.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(s), nil
}

func (m *Memory) Update(_ context.Context, id string, fn func(*schema.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	next := copySession(s)
	fn(next)
	next.ID = s.ID
	next.CreatedAt = s.CreatedAt
	next.UpdatedAt = time.Now()
	m.sessions[id] = next
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Memory) ListRecent(_ context.Context, limit int) ([]*schema.Session, error) {
	m.mu.RLock()
	out := make([]*schema.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, copySession(s))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

func copySession(s *schema.Session) *schema.Session {
	out := *s
	if s.Citations != nil {
		out.Citations = make([]schema.Citation, len(s.Citations))
		copy(out.Citations, s.Citations)
	}
	return &out
}
