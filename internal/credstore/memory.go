package credstore

import "sync"

// Memory is an in-process Store for tests and ephemeral sessions.
type Memory struct {
	mu      sync.Mutex
	session string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Session() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return normalize(m.session), nil
}

func (m *Memory) SetSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = id
	return nil
}

func (m *Memory) Close() error { return nil }
