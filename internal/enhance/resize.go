package enhance

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// Downscale resizes f to w by h with bicubic interpolation (Catmull-Rom
// kernel) and converts the result to float32, the input currency of the
// enhancement stage.
func Downscale(f *media.Frame, w, h int) *media.FloatFrame {
	src := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		si := y * f.Stride()
		di := y * src.Stride
		for x := 0; x < f.Width; x++ {
			src.Pix[di] = f.Pix[si]
			src.Pix[di+1] = f.Pix[si+1]
			src.Pix[di+2] = f.Pix[si+2]
			src.Pix[di+3] = 0xFF
			si += media.FrameChannels
			di += 4
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	ff := &media.FloatFrame{
		Width:  w,
		Height: h,
		Data:   make([]float32, w*h*media.FrameChannels),
	}
	for y := 0; y < h; y++ {
		si := y * dst.Stride
		di := y * w * media.FrameChannels
		for x := 0; x < w; x++ {
			ff.Data[di] = float32(dst.Pix[si])
			ff.Data[di+1] = float32(dst.Pix[si+1])
			ff.Data[di+2] = float32(dst.Pix[si+2])
			si += 4
			di += media.FrameChannels
		}
	}
	return ff
}
