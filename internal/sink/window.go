package sink

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// ErrWindowClosed reports that the user closed the playback window.
var ErrWindowClosed = errors.New("window closed")

// WindowConfig describes the playback window.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
}

// Window is an SDL display sink. It is not safe for concurrent use; exactly
// one goroutine presents frames. sdl.Init must have run before NewWindow.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	texW     int
	texH     int
	log      *slog.Logger
}

// NewWindow opens the playback window and its renderer.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Title == "" {
		cfg.Title = "streamer"
	}
	win, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.Destroy()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return &Window{
		window:   win,
		renderer: renderer,
		log:      slog.With("component", "window"),
	}, nil
}

// Present uploads f and flips it to the screen over a near-black clear. The
// streaming texture is created on the first frame and recreated if the
// frame geometry ever changes. A close event from the window manager fails
// the call with ErrWindowClosed.
func (w *Window) Present(f *media.Frame) error {
	if err := w.drainEvents(); err != nil {
		return err
	}
	if err := w.ensureTexture(f.Width, f.Height); err != nil {
		return err
	}

	pixels, pitch, err := w.texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("lock texture: %w", err)
	}
	stride := f.Stride()
	if pitch == stride {
		copy(pixels, f.Pix)
	} else {
		// SDL may pad rows; copy per row.
		for y := 0; y < f.Height; y++ {
			copy(pixels[y*pitch:y*pitch+stride], f.Pix[y*stride:(y+1)*stride])
		}
	}
	w.texture.Unlock()

	w.renderer.SetDrawColor(0, 0, 2, 255)
	w.renderer.Clear()
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return fmt.Errorf("copy texture: %w", err)
	}
	w.renderer.Present()
	return nil
}

// Close destroys the texture, renderer and window.
func (w *Window) Close() error {
	if w.texture != nil {
		w.texture.Destroy()
		w.texture = nil
	}
	if w.renderer != nil {
		w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	return nil
}

func (w *Window) ensureTexture(width, height int) error {
	if w.texture != nil && w.texW == width && w.texH == height {
		return nil
	}
	if w.texture != nil {
		w.texture.Destroy()
	}
	tex, err := w.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_RGB24),
		sdl.TEXTUREACCESS_STREAMING, int32(width), int32(height))
	if err != nil {
		return fmt.Errorf("create texture: %w", err)
	}
	w.texture = tex
	w.texW, w.texH = width, height
	w.log.Debug("texture created", "width", width, "height", height)
	return nil
}

func (w *Window) drainEvents() error {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if _, ok := ev.(*sdl.QuitEvent); ok {
			return ErrWindowClosed
		}
	}
	return nil
}
