package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AIGR-sw/GSOC/internal/media"
	"github.com/AIGR-sw/GSOC/internal/sink"
)

// VideoConsumer drains the video queue into the display, presenting each
// frame of a batch and sleeping a fixed interval in between. The interval
// is (1000/fps - tolerance)/1000 seconds: a static fudge factor subtracted
// from the ideal spacing to absorb per-frame display overhead. It is not
// adaptive, so any residual overhead accumulates as slow drift against the
// audio over long runs.
type VideoConsumer struct {
	queue    *Queue[*media.FrameBatch]
	sink     sink.VideoSink
	state    *RunState
	stats    *Stats
	timeout  time.Duration
	interval time.Duration
	log      *slog.Logger
}

// VideoConsumerConfig wires a VideoConsumer. Tolerance is in milliseconds;
// Timeout defaults to DefaultPopTimeout.
type VideoConsumerConfig struct {
	Queue     *Queue[*media.FrameBatch]
	Sink      sink.VideoSink
	State     *RunState
	Stats     *Stats
	FPS       float64
	Tolerance float64
	Timeout   time.Duration
	Log       *slog.Logger
}

func NewVideoConsumer(cfg VideoConsumerConfig) *VideoConsumer {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultPopTimeout
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	interval := time.Duration((1000/cfg.FPS - cfg.Tolerance) / 1000 * float64(time.Second))
	if interval < 0 {
		interval = 0
	}
	return &VideoConsumer{
		queue:    cfg.Queue,
		sink:     cfg.Sink,
		state:    cfg.State,
		stats:    cfg.Stats,
		timeout:  cfg.Timeout,
		interval: interval,
		log:      cfg.Log.With("component", "video"),
	}
}

// Interval reports the per-frame pacing sleep.
func (c *VideoConsumer) Interval() time.Duration { return c.interval }

// Run blocks until the queue reaches its fill threshold, then presents
// batches until the queue closes, the run flag clears, or a pop starves.
func (c *VideoConsumer) Run(ctx context.Context) error {
	if err := c.queue.WaitReady(ctx); err != nil {
		return err
	}
	c.log.Debug("buffer filled, streaming")

	for c.state.Running() {
		batch, err := c.queue.Pop(ctx, c.timeout)
		if errors.Is(err, ErrQueueClosed) {
			c.log.Debug("queue drained")
			return nil
		}
		if err != nil {
			return err
		}

		c.log.Info("displaying batch", "seq", batch.Seq, "frames", len(batch.Frames))
		for i, frame := range batch.Frames {
			if err := c.sink.Present(frame); err != nil {
				return fmt.Errorf("present frame %d of batch %d: %w", i, batch.Seq, err)
			}
			c.stats.FramesShown.Add(1)

			select {
			case <-time.After(c.interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		c.stats.BatchesShown.Add(1)
	}
	return nil
}
