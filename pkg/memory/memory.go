// Package memory keeps the rolling transcript an agent feeds back into its prompt.
package memory

import (
	"strings"
	"sync"
)

type Memory struct {
	memoryStream []string
	capacity     int
	mu           sync.RWMutex
}

func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{
		memoryStream: make([]string, 0, capacity),
		capacity:     capacity,
	}
}

// GetAllMessages returns a copy of all entries in memory
func (m *Memory) GetAllMessages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := make([]string, len(m.memoryStream))
	copy(messages, m.memoryStream)
	return messages
}

// Store appends data, dropping the oldest entry once capacity is reached.
func (m *Memory) Store(data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.memoryStream = append(m.memoryStream, data)
	// TODO: bound by prompt tokens instead of entry count
	if len(m.memoryStream) > m.capacity {
		m.memoryStream = m.memoryStream[1:]
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.memoryStream)
}

// Transcript joins the entries one per line.
func (m *Memory) Transcript() string {
	return strings.Join(m.GetAllMessages(), "\n")
}

func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memoryStream = m.memoryStream[:0]
}
