package pipeline

import "testing"

func TestRunStateStartsOnce(t *testing.T) {
	t.Parallel()

	var s RunState
	if !s.Start() {
		t.Fatal("first Start = false, want true")
	}
	if s.Start() {
		t.Error("second Start = true, want false")
	}
	if !s.Running() {
		t.Error("Running = false after Start")
	}
}

func TestRunStateStopIsFinal(t *testing.T) {
	t.Parallel()

	var s RunState
	s.Start()
	s.Stop()

	if s.Running() {
		t.Error("Running = true after Stop")
	}
	if s.Start() {
		t.Error("Start after Stop = true, want false")
	}
	if s.Running() {
		t.Error("Running flipped back by rejected Start")
	}
}
