package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AIGR-sw/GSOC/internal/media"
)

type captureAudioSink struct {
	mu     sync.Mutex
	writes [][]float32
	err    error
}

func (s *captureAudioSink) Write(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, samples)
	return nil
}

func (s *captureAudioSink) Close() error { return nil }

func (s *captureAudioSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// captureVideoSink records the first pixel of every presented frame. When
// gate is set, Present blocks until the test sends on it.
type captureVideoSink struct {
	mu    sync.Mutex
	marks []byte
	err   error
	gate  chan struct{}
}

func (s *captureVideoSink) Present(f *media.Frame) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.marks = append(s.marks, f.Pix[0])
	return nil
}

func (s *captureVideoSink) Close() error { return nil }

func (s *captureVideoSink) marked() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.marks...)
}

func markedBatch(seq int, marks ...byte) *media.FrameBatch {
	frames := make([]*media.Frame, len(marks))
	for i, m := range marks {
		f := media.NewFrame(4, 2)
		f.Pix[0] = m
		frames[i] = f
	}
	return &media.FrameBatch{Seq: seq, Frames: frames}
}

func testChunk(seq int) *media.AudioChunk {
	return &media.AudioChunk{Seq: seq, Samples: make([]float32, 64)}
}

func TestAudioConsumerWaitsForThreshold(t *testing.T) {
	t.Parallel()

	q := NewQueue[*media.AudioChunk]("audio", 3)
	sink := &captureAudioSink{}
	state := &RunState{}
	state.Start()

	c := NewAudioConsumer(AudioConsumerConfig{
		Queue: q,
		Sink:  sink,
		State: state,
		Stats: &Stats{},
		Log:   discardLogger(),
	})

	errc := make(chan error, 1)
	go func() { errc <- c.Run(context.Background()) }()

	q.Push(testChunk(0))
	q.Push(testChunk(1))
	time.Sleep(60 * time.Millisecond)
	if got := sink.count(); got != 0 {
		t.Fatalf("sink saw %d writes below threshold, want 0", got)
	}

	q.Push(testChunk(2))
	q.Close()

	if err := <-errc; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sink.count(); got != 3 {
		t.Errorf("writes = %d, want 3", got)
	}
}

func TestAudioConsumerStarvesOnStall(t *testing.T) {
	t.Parallel()

	q := NewQueue[*media.AudioChunk]("audio", 1)
	q.Push(testChunk(0))
	sink := &captureAudioSink{}
	state := &RunState{}
	state.Start()

	c := NewAudioConsumer(AudioConsumerConfig{
		Queue:   q,
		Sink:    sink,
		State:   state,
		Stats:   &Stats{},
		Timeout: 40 * time.Millisecond,
		Log:     discardLogger(),
	})

	err := c.Run(context.Background())
	var starve *StarvationError
	if !errors.As(err, &starve) {
		t.Fatalf("Run = %v, want StarvationError", err)
	}
	if got := sink.count(); got != 1 {
		t.Errorf("writes before starvation = %d, want 1", got)
	}
}

func TestAudioConsumerSinkFailureIsFatal(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("device gone")
	q := NewQueue[*media.AudioChunk]("audio", 1)
	q.Push(testChunk(0))
	state := &RunState{}
	state.Start()

	c := NewAudioConsumer(AudioConsumerConfig{
		Queue: q,
		Sink:  &captureAudioSink{err: sinkErr},
		State: state,
		Stats: &Stats{},
		Log:   discardLogger(),
	})

	if err := c.Run(context.Background()); !errors.Is(err, sinkErr) {
		t.Errorf("Run = %v, want wrapped %v", err, sinkErr)
	}
}

func TestVideoConsumerPresentsBatchesInOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue[*media.FrameBatch]("video", 1)
	q.Push(markedBatch(0, 1, 2, 3))
	q.Push(markedBatch(1, 4, 5, 6))
	q.Close()

	sink := &captureVideoSink{}
	state := &RunState{}
	state.Start()
	stats := &Stats{}

	c := NewVideoConsumer(VideoConsumerConfig{
		Queue:     q,
		Sink:      sink,
		State:     state,
		Stats:     stats,
		FPS:       200,
		Tolerance: 2.25,
		Log:       discardLogger(),
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	marks := sink.marked()
	want := []byte{1, 2, 3, 4, 5, 6}
	if len(marks) != len(want) {
		t.Fatalf("presented %d frames, want %d", len(marks), len(want))
	}
	for i := range want {
		if marks[i] != want[i] {
			t.Errorf("frame %d mark = %d, want %d", i, marks[i], want[i])
		}
	}
	if got := stats.BatchesShown.Load(); got != 2 {
		t.Errorf("BatchesShown = %d, want 2", got)
	}
	if got := stats.FramesShown.Load(); got != 6 {
		t.Errorf("FramesShown = %d, want 6", got)
	}
}

func TestVideoConsumerPacingInterval(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fps  float64
		tol  float64
		want time.Duration
	}{
		{"fps40", 40, 2.25, 22750 * time.Microsecond},
		{"fps24", 24, 2.25, 39416666 * time.Nanosecond},
		{"no tolerance", 25, 0, 40 * time.Millisecond},
		{"clamped to zero", 1000, 2.25, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewVideoConsumer(VideoConsumerConfig{
				Queue:     NewQueue[*media.FrameBatch]("video", 1),
				Sink:      &captureVideoSink{},
				State:     &RunState{},
				Stats:     &Stats{},
				FPS:       tc.fps,
				Tolerance: tc.tol,
				Log:       discardLogger(),
			})
			got := c.Interval()
			diff := got - tc.want
			if diff < 0 {
				diff = -diff
			}
			if diff > time.Microsecond {
				t.Errorf("Interval = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVideoConsumerStopsWhenFlagCleared(t *testing.T) {
	t.Parallel()

	q := NewQueue[*media.FrameBatch]("video", 1)
	q.Push(markedBatch(0, 7))

	sink := &captureVideoSink{gate: make(chan struct{})}
	state := &RunState{}
	state.Start()
	stats := &Stats{}

	c := NewVideoConsumer(VideoConsumerConfig{
		Queue:     q,
		Sink:      sink,
		State:     state,
		Stats:     stats,
		FPS:       1000,
		Tolerance: 2.25,
		Timeout:   5 * time.Second,
		Log:       discardLogger(),
	})

	errc := make(chan error, 1)
	go func() { errc <- c.Run(context.Background()) }()

	// Clear the flag while the consumer sits inside Present, then let the
	// frame finish. The loop guard must exit without another pop.
	state.Stop()
	sink.gate <- struct{}{}

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("consumer kept running after Stop")
	}
	if got := stats.BatchesShown.Load(); got != 1 {
		t.Errorf("BatchesShown = %d, want 1", got)
	}
}
