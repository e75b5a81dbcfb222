package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hiring-pipeline/internal/types"
)

// MemoryStore is an in-process store with the same compare-and-swap
// semantics as DB. Records are deep-copied on the way in and out so callers
// never share state with the store.
type MemoryStore struct {
	mu         sync.Mutex
	processes  map[string]*types.Process
	candidates map[string]*types.Candidate
	context    *types.StrategicContext
	users      map[string]*User
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		processes:  make(map[string]*types.Process),
		candidates: make(map[string]*types.Candidate),
		users:      make(map[string]*User),
	}
}

// clone deep-copies v through its JSON form.
func clone[T any](v *T) (*T, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MemoryStore) CreateProcess(ctx context.Context, p *types.Process) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.processes[p.ID]; ok {
		return fmt.Errorf("process already exists: %s", p.ID)
	}
	p.Version = 0
	stored, err := clone(p)
	if err != nil {
		return fmt.Errorf("failed to copy process: %w", err)
	}
	m.processes[p.ID] = stored
	return nil
}

func (m *MemoryStore) GetProcess(ctx context.Context, id string) (*types.Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[id]
	if !ok {
		return nil, nil
	}
	return clone(p)
}

func (m *MemoryStore) UpdateProcess(ctx context.Context, p *types.Process, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.processes[p.ID]
	if !ok {
		return fmt.Errorf("processes row not found: %s", p.ID)
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	stored, err := clone(p)
	if err != nil {
		return fmt.Errorf("failed to copy process: %w", err)
	}
	stored.Version = expectedVersion + 1
	m.processes[p.ID] = stored
	p.Version = stored.Version
	return nil
}

func (m *MemoryStore) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.ID]; ok {
		return fmt.Errorf("candidate already exists: %s", c.ID)
	}
	c.Version = 0
	stored, err := clone(c)
	if err != nil {
		return fmt.Errorf("failed to copy candidate: %w", err)
	}
	m.candidates[c.ID] = stored
	return nil
}

func (m *MemoryStore) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, nil
	}
	return clone(c)
}

func (m *MemoryStore) UpdateCandidate(ctx context.Context, c *types.Candidate, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.candidates[c.ID]
	if !ok {
		return fmt.Errorf("candidates row not found: %s", c.ID)
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	stored, err := clone(c)
	if err != nil {
		return fmt.Errorf("failed to copy candidate: %w", err)
	}
	stored.Version = expectedVersion + 1
	m.candidates[c.ID] = stored
	c.Version = stored.Version
	return nil
}

func (m *MemoryStore) GetStrategicContext(ctx context.Context) (*types.StrategicContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.context == nil {
		return nil, nil
	}
	return clone(m.context)
}

func (m *MemoryStore) UpsertStrategicContext(ctx context.Context, sc *types.StrategicContext) (*types.StrategicContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := clone(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to copy strategic context: %w", err)
	}
	if stored.UpdatedAt == nil {
		now := time.Now().UTC()
		stored.UpdatedAt = &now
	}
	if stored.CoreValues == nil {
		stored.CoreValues = []string{}
	}
	m.context = stored
	return clone(stored)
}

// CreateUser inserts a user and returns its ID. Emails are unique.
func (m *MemoryStore) CreateUser(ctx context.Context, name, email string, role types.Role, passwordHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = normalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return "", fmt.Errorf("failed to create user: email already exists: %s", email)
		}
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
