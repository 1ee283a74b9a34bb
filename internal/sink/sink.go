// Package sink defines the playback outputs: an audio device that accepts
// interleaved float32 samples and a video surface that displays frames.
// Implementations back them with SDL; tests substitute in-memory fakes.
package sink

import "github.com/AIGR-sw/GSOC/internal/media"

// AudioSink plays interleaved stereo float32 samples. Write blocks until
// the device has accepted the whole slice, which is what paces the audio
// consumer: one call per one-second chunk.
type AudioSink interface {
	Write(samples []float32) error
	Close() error
}

// VideoSink displays one frame per call. Present returns once the frame is
// on screen; pacing between frames is the caller's job.
type VideoSink interface {
	Present(f *media.Frame) error
	Close() error
}
