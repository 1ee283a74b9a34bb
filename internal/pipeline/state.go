package pipeline

import "sync"

// RunState is the run flag shared by the producer and both consumers. A
// session is one-shot: Start succeeds exactly once, even after Stop. Stop
// exists for the abort path; a clean run ends by queue close instead.
type RunState struct {
	mu      sync.Mutex
	started bool
	running bool
}

// Start sets the flag and reports whether this call performed the
// transition. Later calls return false and change nothing.
func (s *RunState) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.started = true
	s.running = true
	return true
}

// Stop clears the flag so the consumer loop guards exit.
func (s *RunState) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Running reads the flag.
func (s *RunState) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
