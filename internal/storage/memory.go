package storage

import (
	"context"
	"sync"
)

// Memory implements Storage in process memory. A positive quota caps the
// total bytes of keys plus values, like a browser's per-origin limit.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
	used   int
	closed bool
}

// NewMemory creates an in-memory store; quota <= 0 means unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{
		values: make(map[string]string),
		quota:  quota,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrUnavailable
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrUnavailable
	}

	used := m.used
	if old, ok := m.values[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.values[key] = value
	m.used = used
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrUnavailable
	}
	if old, ok := m.values[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.values, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close makes every later call fail with ErrUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
