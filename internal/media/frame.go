// Package media defines the frame and sample types that flow through the
// playback pipeline, from decode through enhancement to the output sinks.
package media

// FrameChannels is the number of color channels in a decoded frame. Frames
// are interleaved RGB, 8 bits per channel, row-major with top-left origin.
const FrameChannels = 3

// Frame is a single decoded picture. It is immutable once produced; ownership
// moves down the pipeline and the buffer is dropped after display.
type Frame struct {
	Width  int
	Height int
	Pix    []byte // len == Width*Height*FrameChannels
}

// NewFrame allocates a zeroed frame of the given geometry.
func NewFrame(w, h int) *Frame {
	return &Frame{
		Width:  w,
		Height: h,
		Pix:    make([]byte, w*h*FrameChannels),
	}
}

// Stride returns the length of one pixel row in bytes.
func (f *Frame) Stride() int {
	return f.Width * FrameChannels
}

// FloatFrame is a frame converted to float32, the working currency between
// the downscale step and the enhancement stage.
type FloatFrame struct {
	Width  int
	Height int
	Data   []float32 // len == Width*Height*FrameChannels
}

// Quantize clips every sample to [0,255] and truncates to an 8-bit Frame.
func (f *FloatFrame) Quantize() *Frame {
	out := NewFrame(f.Width, f.Height)
	for i, v := range f.Data {
		switch {
		case v <= 0:
			out.Pix[i] = 0
		case v >= 255:
			out.Pix[i] = 255
		default:
			out.Pix[i] = byte(v)
		}
	}
	return out
}

// FrameBatch holds one playback second of frames in display order. Seq is the
// producer iteration that built it; consumers may read it to detect cadence
// drift between the audio and video queues, but no correction is applied by
// default.
type FrameBatch struct {
	Seq    int
	Frames []*Frame
}
