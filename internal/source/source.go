// Package source supplies decoded media to the playback pipeline: video as
// raw RGB frames and audio as one-second chunks of interleaved float32
// stereo samples.
package source

import (
	"github.com/AIGR-sw/GSOC/internal/media"
)

// Source produces a lazy sequence of decoded video frames and a lazy sequence
// of audio chunks, plus the static stream properties the pipeline schedules
// by. Both sequences end with io.EOF. Implementations are not required to be
// safe for concurrent use; the producer loop is the only caller.
type Source interface {
	// FrameRate returns the video frame rate in frames per second.
	FrameRate() float64

	// Duration returns the stream duration in seconds.
	Duration() float64

	// SampleRate returns the audio sample rate in Hz.
	SampleRate() int

	// NextFrame returns the next decoded frame, or io.EOF at end of stream.
	NextFrame() (*media.Frame, error)

	// NextChunk returns up to n sample frames of interleaved stereo audio.
	// A short chunk may be returned at end of stream; the call after the
	// final sample returns io.EOF.
	NextChunk(n int) (*media.AudioChunk, error)

	// Close releases decoder resources.
	Close() error
}
