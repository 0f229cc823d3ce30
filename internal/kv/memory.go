package kv

import (
	"context"
	"sync"
)

type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// MemoryOpener hands out one Memory per client id.
type MemoryOpener struct {
	mu     sync.Mutex
	stores map[string]*Memory
}

func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{stores: make(map[string]*Memory)}
}

func (o *MemoryOpener) Open(clientID string) Store {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.stores[clientID]
	if !ok {
		s = NewMemory()
		o.stores[clientID] = s
	}
	return s
}
