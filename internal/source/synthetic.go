package source

import (
	"io"
	"math"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// SyntheticConfig describes a generated stream.
type SyntheticConfig struct {
	FPS        float64
	Duration   float64 // seconds
	SampleRate int
	Width      int // default 64
	Height     int // default 36
}

// Synthetic is a deterministic in-memory Source: frames are a gradient that
// shifts each frame, audio is a 440 Hz tone. It drives package tests and the
// headless example without media files or ffmpeg.
type Synthetic struct {
	cfg          SyntheticConfig
	frameIdx     int
	totalFrames  int
	samplePos    int
	totalSamples int
}

// NewSynthetic creates a generated source for the given stream shape.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.Width == 0 {
		cfg.Width = 64
	}
	if cfg.Height == 0 {
		cfg.Height = 36
	}
	return &Synthetic{
		cfg:          cfg,
		totalFrames:  int(cfg.Duration * cfg.FPS),
		totalSamples: int(cfg.Duration * float64(cfg.SampleRate)),
	}
}

// FrameRate returns the configured frame rate.
func (s *Synthetic) FrameRate() float64 { return s.cfg.FPS }

// Duration returns the configured duration in seconds.
func (s *Synthetic) Duration() float64 { return s.cfg.Duration }

// SampleRate returns the configured sample rate.
func (s *Synthetic) SampleRate() int { return s.cfg.SampleRate }

// NextFrame generates the next gradient frame, or io.EOF past the end.
func (s *Synthetic) NextFrame() (*media.Frame, error) {
	if s.frameIdx >= s.totalFrames {
		return nil, io.EOF
	}
	f := media.NewFrame(s.cfg.Width, s.cfg.Height)
	for y := 0; y < s.cfg.Height; y++ {
		for x := 0; x < s.cfg.Width; x++ {
			i := (y*s.cfg.Width + x) * media.FrameChannels
			f.Pix[i] = byte(x + s.frameIdx)
			f.Pix[i+1] = byte(y + s.frameIdx)
			f.Pix[i+2] = byte(s.frameIdx)
		}
	}
	s.frameIdx++
	return f, nil
}

// NextChunk generates up to n sample frames of tone, short at end of stream.
func (s *Synthetic) NextChunk(n int) (*media.AudioChunk, error) {
	remaining := s.totalSamples - s.samplePos
	if remaining <= 0 {
		return nil, io.EOF
	}
	if n > remaining {
		n = remaining
	}
	samples := make([]float32, n*media.AudioChannels)
	for i := 0; i < n; i++ {
		v := float32(0.2 * math.Sin(2*math.Pi*440*float64(s.samplePos+i)/float64(s.cfg.SampleRate)))
		samples[i*media.AudioChannels] = v
		samples[i*media.AudioChannels+1] = v
	}
	s.samplePos += n
	return &media.AudioChunk{Samples: samples}, nil
}

// Close is a no-op for generated streams.
func (s *Synthetic) Close() error { return nil }
