package store

import (
	"context"
	"sort"
	"sync"
)

// Memory keeps runs in process memory. Runs are shared, not copied;
// callers must not modify a run after saving it.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewMemory() *Memory {
	return &Memory{runs: map[string]*Run{}}
}

func (m *Memory) Save(_ context.Context, run *Run) error {
	prepare(run)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run, nil
}

func (m *Memory) List(_ context.Context) ([]RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RunInfo, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.Info())
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }

func sortNewestFirst(infos []RunInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
}
