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

// AudioConsumer drains the audio queue into the audio sink. It waits for
// the startup fill threshold, then writes each chunk verbatim; pacing comes
// from the sink's blocking write, not from this loop.
type AudioConsumer struct {
	queue   *Queue[*media.AudioChunk]
	sink    sink.AudioSink
	state   *RunState
	stats   *Stats
	timeout time.Duration
	log     *slog.Logger
}

// AudioConsumerConfig wires an AudioConsumer. Timeout defaults to
// DefaultPopTimeout.
type AudioConsumerConfig struct {
	Queue   *Queue[*media.AudioChunk]
	Sink    sink.AudioSink
	State   *RunState
	Stats   *Stats
	Timeout time.Duration
	Log     *slog.Logger
}

func NewAudioConsumer(cfg AudioConsumerConfig) *AudioConsumer {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultPopTimeout
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &AudioConsumer{
		queue:   cfg.Queue,
		sink:    cfg.Sink,
		state:   cfg.State,
		stats:   cfg.Stats,
		timeout: cfg.Timeout,
		log:     cfg.Log.With("component", "audio"),
	}
}

// Run blocks until the queue reaches its fill threshold, then streams
// chunks until the queue closes, the run flag clears, or a pop starves.
func (c *AudioConsumer) Run(ctx context.Context) error {
	if err := c.queue.WaitReady(ctx); err != nil {
		return err
	}
	c.log.Debug("buffer filled, streaming")

	for c.state.Running() {
		chunk, err := c.queue.Pop(ctx, c.timeout)
		if errors.Is(err, ErrQueueClosed) {
			c.log.Debug("queue drained")
			return nil
		}
		if err != nil {
			return err
		}

		if err := c.sink.Write(chunk.Samples); err != nil {
			return fmt.Errorf("write chunk %d: %w", chunk.Seq, err)
		}
		c.stats.ChunksWritten.Add(1)
	}
	return nil
}
