package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AIGR-sw/GSOC/internal/enhance"
	"github.com/AIGR-sw/GSOC/internal/media"
	"github.com/AIGR-sw/GSOC/internal/source"
)

// Producer drives the fetch loop: one audio chunk and one enhanced frame
// batch per second of the stream, pushed to the queues in cadence order.
// It runs int(duration) iterations, so a trailing fraction of a second is
// never fetched.
type Producer struct {
	source    source.Source
	processor *enhance.BatchProcessor
	audioQ    *Queue[*media.AudioChunk]
	videoQ    *Queue[*media.FrameBatch]
	stats     *Stats
	yield     time.Duration
	log       *slog.Logger

	seconds        int
	framesPerBatch int
	chunkSamples   int
}

// ProducerConfig wires a Producer. Queues, Source, Processor and Stats are
// required; Yield defaults to DefaultYield.
type ProducerConfig struct {
	Source     source.Source
	Processor  *enhance.BatchProcessor
	AudioQueue *Queue[*media.AudioChunk]
	VideoQueue *Queue[*media.FrameBatch]
	Stats      *Stats
	Yield      time.Duration
	Log        *slog.Logger
}

// NewProducer sizes the fetch loop from the source's duration, frame rate
// and sample rate.
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.Yield == 0 {
		cfg.Yield = DefaultYield
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Producer{
		source:         cfg.Source,
		processor:      cfg.Processor,
		audioQ:         cfg.AudioQueue,
		videoQ:         cfg.VideoQueue,
		stats:          cfg.Stats,
		yield:          cfg.Yield,
		log:            cfg.Log.With("component", "producer"),
		seconds:        int(cfg.Source.Duration()),
		framesPerBatch: int(cfg.Source.FrameRate()),
		chunkSamples:   cfg.Source.SampleRate(),
	}
}

// Run fetches the whole stream second by second. On clean completion it
// closes both queues so the consumers drain and exit; on error it returns
// without closing and leaves the shutdown to the caller's cancellation.
func (p *Producer) Run(ctx context.Context) error {
	p.log.Debug("fetch loop starting", "seconds", p.seconds, "frames_per_batch", p.framesPerBatch)

	for sec := 0; sec < p.seconds; sec++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := p.source.NextChunk(p.chunkSamples)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &SourceExhaustedError{Second: sec, Media: "audio", Err: err}
			}
			return fmt.Errorf("fetch audio second %d: %w", sec, err)
		}
		chunk.Seq = sec

		batch, err := p.fetchBatch(ctx, sec)
		if err != nil {
			return err
		}

		p.audioQ.Push(chunk)
		p.videoQ.Push(batch)
		p.stats.ChunksProduced.Add(1)
		p.stats.BatchesProduced.Add(1)
		p.log.Debug("second fetched",
			"seq", sec,
			"audio_depth", p.audioQ.Len(),
			"video_depth", p.videoQ.Len())

		// Brief pause so the consumer goroutines get scheduled while the
		// queues fill.
		select {
		case <-time.After(p.yield):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.audioQ.Close()
	p.videoQ.Close()
	p.log.Info("source fully fetched", "seconds", p.seconds)
	return nil
}

// fetchBatch collects one second of raw frames and hands them to the
// processor. A short batch is accepted only when the final iteration runs
// out of frames with at least one in hand; any earlier end of stream is
// SourceExhaustedError.
func (p *Producer) fetchBatch(ctx context.Context, sec int) (*media.FrameBatch, error) {
	frames := make([]*media.Frame, 0, p.framesPerBatch)
	for i := 0; i < p.framesPerBatch; i++ {
		f, err := p.source.NextFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("fetch frame %d of second %d: %w", i, sec, err)
			}
			if sec != p.seconds-1 || len(frames) == 0 {
				return nil, &SourceExhaustedError{Second: sec, Media: "video", Err: err}
			}
			p.log.Debug("short final batch", "seq", sec, "frames", len(frames))
			break
		}
		frames = append(frames, f)
	}
	return p.processor.Process(ctx, frames, sec)
}
