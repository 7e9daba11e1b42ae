package runtime

import (
	"sync"

	"github.com/roasbeef/actorlab/internal/actors"
)

// monitorSet tracks the monitors a context has registered, keyed by the
// name passed to RegisterMonitor (spec.md §4.6).
type monitorSet struct {
	mu sync.Mutex
	m  map[string]*actors.Monitor
}

func newMonitorSet() *monitorSet {
	return &monitorSet{m: make(map[string]*actors.Monitor)}
}

func (s *monitorSet) add(name string, m *actors.Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[name] = m
}

func (s *monitorSet) get(name string) (*actors.Monitor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.m[name]

	return m, ok
}
