package enhance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// markStage copies the first sample of its input into the output frame so
// tests can track which input produced which output.
type markStage struct {
	failAt int // frame first-pixel value that triggers an error; -1 disables
}

func (s *markStage) Enhance(_ context.Context, ff *media.FloatFrame) (*media.Frame, error) {
	if s.failAt >= 0 && int(ff.Data[0]) == s.failAt {
		return nil, fmt.Errorf("model rejected frame")
	}
	out := media.NewFrame(ff.Width*4, ff.Height*4)
	out.Pix[0] = byte(ff.Data[0])
	return out, nil
}

func markedFrames(n, w, h int) []*media.Frame {
	frames := make([]*media.Frame, n)
	for i := range frames {
		f := media.NewFrame(w, h)
		for p := 0; p < len(f.Pix); p += media.FrameChannels {
			f.Pix[p] = byte(i + 1)
		}
		frames[i] = f
	}
	return frames
}

func TestProcessDownscaleOnly(t *testing.T) {
	t.Parallel()

	b := NewBatchProcessor(BatchProcessorConfig{Width: 32, Height: 18})

	batch, err := b.Process(context.Background(), markedFrames(10, 128, 72), 4)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if batch.Seq != 4 {
		t.Errorf("Seq: got %d, want 4", batch.Seq)
	}
	if len(batch.Frames) != 10 {
		t.Fatalf("batch length: got %d, want 10", len(batch.Frames))
	}
	for i, f := range batch.Frames {
		if f.Width != 32 || f.Height != 18 {
			t.Errorf("frame %d: got %dx%d, want 32x18", i, f.Width, f.Height)
		}
	}
}

func TestProcessPreservesOrderThroughPool(t *testing.T) {
	t.Parallel()

	p := NewPool(8)
	defer p.Close()
	b := NewBatchProcessor(BatchProcessorConfig{
		Stage:  &markStage{failAt: -1},
		Pool:   p,
		Width:  16,
		Height: 9,
	})

	// A uniform source frame survives bicubic downscale with its value
	// intact, so the mark round-trips into the stage output.
	batch, err := b.Process(context.Background(), markedFrames(24, 64, 36), 0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, f := range batch.Frames {
		if int(f.Pix[0]) != i+1 {
			t.Errorf("frame %d carries mark %d, order not preserved", i, f.Pix[0])
		}
	}
}

func TestProcessWholeBatchFailsOnInferenceError(t *testing.T) {
	t.Parallel()

	p := NewPool(4)
	defer p.Close()
	b := NewBatchProcessor(BatchProcessorConfig{
		Stage:  &markStage{failAt: 4}, // frame index 3 carries mark 4
		Pool:   p,
		Width:  16,
		Height: 9,
	})

	batch, err := b.Process(context.Background(), markedFrames(10, 64, 36), 0)
	if batch != nil {
		t.Fatal("expected no batch on inference failure")
	}
	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("error: got %T (%v), want *InferenceError", err, err)
	}
	if infErr.Frame != 3 {
		t.Errorf("offending frame: got %d, want 3", infErr.Frame)
	}
}

func TestDownscaleGeometryAndValues(t *testing.T) {
	t.Parallel()

	f := media.NewFrame(1280, 720)
	for i := 0; i < len(f.Pix); i += media.FrameChannels {
		f.Pix[i] = 100
		f.Pix[i+1] = 150
		f.Pix[i+2] = 200
	}

	ff := Downscale(f, 320, 180)
	if ff.Width != 320 || ff.Height != 180 {
		t.Fatalf("geometry: got %dx%d, want 320x180", ff.Width, ff.Height)
	}
	if got, want := len(ff.Data), 320*180*media.FrameChannels; got != want {
		t.Fatalf("data length: got %d, want %d", got, want)
	}

	// A constant image stays constant under bicubic interpolation.
	center := (90*320 + 160) * media.FrameChannels
	if ff.Data[center] != 100 || ff.Data[center+1] != 150 || ff.Data[center+2] != 200 {
		t.Errorf("center sample: got (%v,%v,%v), want (100,150,200)",
			ff.Data[center], ff.Data[center+1], ff.Data[center+2])
	}
}
