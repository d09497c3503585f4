package tree

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process Driver. It is the driver of choice for unit tests
// and single instance development setups.
type Memory struct {
	mutex sync.RWMutex
	rows  map[string][]byte
}

// NewMemory returns an empty in-memory driver
func NewMemory() *Memory {
	return &Memory{rows: map[string][]byte{}}
}

// NewMemoryTree is a shortcut for New(NewMemory())
func NewMemoryTree() *Tree {
	return New(NewMemory())
}

// Read implements Driver
func (m *Memory) Read(ctx context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	raw, ok := m.rows[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

// List implements Driver
func (m *Memory) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	rows := map[string][]byte{}
	for key, raw := range m.rows {
		if strings.HasPrefix(key, prefix) {
			rows[key] = append([]byte(nil), raw...)
		}
	}
	return rows, nil
}

// Write implements Driver
func (m *Memory) Write(ctx context.Context, key string, raw []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rows[key] = append([]byte(nil), raw...)
	return nil
}

// Delete implements Driver
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rows, key)
	return nil
}

// DeletePrefix implements Driver
func (m *Memory) DeletePrefix(ctx context.Context, prefix string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for key := range m.rows {
		if strings.HasPrefix(key, prefix) {
			delete(m.rows, key)
		}
	}
	return nil
}

// Len returns the number of rows
func (m *Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rows)
}
