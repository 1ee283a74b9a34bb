package enhance

import (
	"context"
	"log/slog"
	"time"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// BatchProcessorConfig holds the parameters for a BatchProcessor.
type BatchProcessorConfig struct {
	Stage  Stage // nil selects the downscale-only path
	Pool   *Pool
	Width  int // working resolution
	Height int
}

// BatchProcessor builds one FrameBatch per producer iteration. Frames are
// downscaled sequentially in input order; the enhancement stage then runs
// over the whole batch concurrently on the shared pool.
type BatchProcessor struct {
	stage  Stage
	pool   *Pool
	width  int
	height int
	log    *slog.Logger
}

// NewBatchProcessor creates a processor for the given working resolution.
func NewBatchProcessor(cfg BatchProcessorConfig) *BatchProcessor {
	return &BatchProcessor{
		stage:  cfg.Stage,
		pool:   cfg.Pool,
		width:  cfg.Width,
		height: cfg.Height,
		log:    slog.With("component", "enhance"),
	}
}

// Process turns the raw frames of producer iteration seq into a FrameBatch.
// A stage failure on any single frame fails the whole batch with an
// InferenceError carrying that frame's index.
func (b *BatchProcessor) Process(ctx context.Context, frames []*media.Frame, seq int) (*media.FrameBatch, error) {
	start := time.Now()
	scaled := make([]*media.FloatFrame, len(frames))
	for i, f := range frames {
		scaled[i] = Downscale(f, b.width, b.height)
	}

	if b.stage == nil {
		out := make([]*media.Frame, len(scaled))
		for i, ff := range scaled {
			out[i] = ff.Quantize()
		}
		return &media.FrameBatch{Seq: seq, Frames: out}, nil
	}

	out, err := MapOrdered(ctx, b.pool, scaled, func(ctx context.Context, i int, ff *media.FloatFrame) (*media.Frame, error) {
		f, err := b.stage.Enhance(ctx, ff)
		if err != nil {
			return nil, &InferenceError{Frame: i, Err: err}
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}

	b.log.Debug("batch enhanced",
		"seq", seq,
		"frames", len(out),
		"elapsed", time.Since(start))
	return &media.FrameBatch{Seq: seq, Frames: out}, nil
}
