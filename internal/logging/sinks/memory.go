package sinks

import (
	"context"
	"sync"

	"github.com/TARATRAOVO/rhodes-resonance/internal/logging"
)

type MemorySink struct {
	mu      sync.RWMutex
	entries []logging.Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make([]logging.Entry, 0)}
}

func (s *MemorySink) Write(entry logging.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemorySink) Entries() []logging.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]logging.Entry, len(s.entries))
	copy(copied, s.entries)
	return copied
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}
