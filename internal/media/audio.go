package media

// AudioChannels is the channel count of every chunk: interleaved stereo.
const AudioChannels = 2

// AudioChunk holds one playback second of interleaved float32 stereo samples
// at the source sample rate. Like frames, chunks are immutable and consumed
// exactly once. Seq mirrors FrameBatch.Seq for the same producer iteration.
type AudioChunk struct {
	Seq     int
	Samples []float32 // len == sampleRate*AudioChannels for a full second
}

// SampleFrames returns the number of sample frames (one value per channel)
// in the chunk.
func (c *AudioChunk) SampleFrames() int {
	return len(c.Samples) / AudioChannels
}
