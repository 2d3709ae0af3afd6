package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanketnighot/hookified/pkg/types"
)

// MemoryBackend is an in-memory BackendRepository for tests. It mirrors the
// Postgres backend's semantics (terminal-once run completion, cascade
// delete) without a database.
type MemoryBackend struct {
	mu     sync.Mutex
	nextId uint
	hooks  map[uint]*types.Hook
	runs   map[string]*types.HookRun
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		nextId: 1,
		hooks:  make(map[uint]*types.Hook),
		runs:   make(map[string]*types.HookRun),
	}
}

func (m *MemoryBackend) CreateHook(_ context.Context, hook *types.Hook) (*types.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook.Id = m.nextId
	m.nextId++
	if hook.ExternalId == "" {
		hook.ExternalId = uuid.New().String()
	}
	now := time.Now()
	hook.CreatedAt = now
	hook.UpdatedAt = now
	cp := *hook
	m.hooks[hook.Id] = &cp
	return hook, nil
}

func (m *MemoryBackend) GetHook(_ context.Context, externalId string) (*types.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hooks {
		if h.ExternalId == externalId {
			cp := *h
			return &cp, nil
		}
	}
	return nil, &types.ErrHookNotFound{ExternalId: externalId}
}

func (m *MemoryBackend) GetHookById(_ context.Context, id uint) (*types.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[id]
	if !ok {
		return nil, &types.ErrHookNotFound{ExternalId: fmt.Sprintf("id=%d", id)}
	}
	cp := *h
	return &cp, nil
}

func (m *MemoryBackend) ListHooks(_ context.Context, userId uint) ([]*types.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Hook
	for _, h := range m.hooks {
		if h.UserId == userId {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryBackend) UpdateHook(_ context.Context, hook *types.Hook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hooks[hook.Id]; !ok {
		return &types.ErrHookNotFound{ExternalId: hook.ExternalId}
	}
	hook.UpdatedAt = time.Now()
	cp := *hook
	m.hooks[hook.Id] = &cp
	return nil
}

func (m *MemoryBackend) UpdateHookStatus(_ context.Context, id uint, status types.HookStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[id]
	if !ok {
		return &types.ErrHookNotFound{ExternalId: fmt.Sprintf("id=%d", id)}
	}
	h.Status = status
	h.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryBackend) TouchHookExecuted(_ context.Context, id uint, executedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[id]
	if !ok {
		return &types.ErrHookNotFound{ExternalId: fmt.Sprintf("id=%d", id)}
	}
	t := executedAt
	h.LastExecutedAt = &t
	h.LastCheckedAt = &t
	return nil
}

func (m *MemoryBackend) DeleteHook(_ context.Context, externalId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.hooks {
		if h.ExternalId == externalId {
			delete(m.hooks, id)
			for rid, r := range m.runs {
				if r.HookId == id {
					delete(m.runs, rid)
				}
			}
			return nil
		}
	}
	return &types.ErrHookNotFound{ExternalId: externalId}
}

func (m *MemoryBackend) CreateRun(_ context.Context, run *types.HookRun) (*types.HookRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Id = m.nextId
	m.nextId++
	cp := *run
	m.runs[run.ExternalId] = &cp
	return run, nil
}

func (m *MemoryBackend) CompleteRun(_ context.Context, run *types.HookRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.runs[run.ExternalId]
	if !ok || existing.Status != types.RunStatusPending {
		return &types.ErrRunNotFound{ExternalId: run.ExternalId}
	}
	cp := *run
	m.runs[run.ExternalId] = &cp
	return nil
}

func (m *MemoryBackend) GetRun(_ context.Context, externalId string) (*types.HookRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[externalId]
	if !ok {
		return nil, &types.ErrRunNotFound{ExternalId: externalId}
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryBackend) ListRuns(_ context.Context, hookId uint, limit, offset int) ([]*types.HookRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.HookRun
	for _, r := range m.runs {
		if r.HookId == hookId {
			cp := *r
			out = append(out, &cp)
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].TriggeredAt.After(out[i].TriggeredAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryBackend) DB() *sql.DB                  { return nil }
func (m *MemoryBackend) Ping(_ context.Context) error { return nil }
func (m *MemoryBackend) Close() error                 { return nil }
func (m *MemoryBackend) RunMigrations() error         { return nil }

var _ BackendRepository = (*MemoryBackend)(nil)
