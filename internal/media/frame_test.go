package media

import "testing"

func TestNewFrameGeometry(t *testing.T) {
	t.Parallel()

	f := NewFrame(320, 180)
	if got, want := len(f.Pix), 320*180*FrameChannels; got != want {
		t.Errorf("Pix length: got %d, want %d", got, want)
	}
	if got, want := f.Stride(), 320*FrameChannels; got != want {
		t.Errorf("Stride: got %d, want %d", got, want)
	}
}

func TestQuantizeClipsAndTruncates(t *testing.T) {
	t.Parallel()

	ff := &FloatFrame{
		Width:  1,
		Height: 2,
		Data:   []float32{-3.0, 0.0, 254.7, 255.0, 300.0, 127.9},
	}
	got := ff.Quantize()

	want := []byte{0, 0, 254, 255, 255, 127}
	for i, b := range want {
		if got.Pix[i] != b {
			t.Errorf("Pix[%d]: got %d, want %d", i, got.Pix[i], b)
		}
	}
	if got.Width != 1 || got.Height != 2 {
		t.Errorf("geometry: got %dx%d, want 1x2", got.Width, got.Height)
	}
}

func TestAudioChunkSampleFrames(t *testing.T) {
	t.Parallel()

	c := &AudioChunk{Samples: make([]float32, 8000*AudioChannels)}
	if got := c.SampleFrames(); got != 8000 {
		t.Errorf("SampleFrames: got %d, want 8000", got)
	}
}
