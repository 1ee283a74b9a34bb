package source

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIGR-sw/GSOC/internal/media"
)

func TestSyntheticFrameSequence(t *testing.T) {
	t.Parallel()

	s := NewSynthetic(SyntheticConfig{FPS: 10, Duration: 3, SampleRate: 8000})

	var frames int
	for {
		f, err := s.NextFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Len(t, f.Pix, f.Width*f.Height*media.FrameChannels)
		frames++
	}
	assert.Equal(t, 30, frames, "3s at 10fps")
}

func TestSyntheticChunkSequence(t *testing.T) {
	t.Parallel()

	// 2.5s at 8 kHz: two full one-second chunks, then a short one, then EOF.
	s := NewSynthetic(SyntheticConfig{FPS: 10, Duration: 2.5, SampleRate: 8000})

	c, err := s.NextChunk(8000)
	require.NoError(t, err)
	assert.Equal(t, 8000, c.SampleFrames())

	c, err = s.NextChunk(8000)
	require.NoError(t, err)
	assert.Equal(t, 8000, c.SampleFrames())

	c, err = s.NextChunk(8000)
	require.NoError(t, err)
	assert.Equal(t, 4000, c.SampleFrames(), "short final chunk")

	_, err = s.NextChunk(8000)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSyntheticFramesAreDeterministic(t *testing.T) {
	t.Parallel()

	a := NewSynthetic(SyntheticConfig{FPS: 5, Duration: 1, SampleRate: 8000})
	b := NewSynthetic(SyntheticConfig{FPS: 5, Duration: 1, SampleRate: 8000})

	fa, err := a.NextFrame()
	require.NoError(t, err)
	fb, err := b.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, fa.Pix, fb.Pix)
}
