// Package pipeline implements the playback loop: a producer that fetches
// one second of audio and one enhanced frame batch per iteration, two
// threshold-gated queues, and a consumer pair that drains them onto the
// audio and video sinks in lockstep.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AIGR-sw/GSOC/internal/enhance"
	"github.com/AIGR-sw/GSOC/internal/media"
	"github.com/AIGR-sw/GSOC/internal/sink"
	"github.com/AIGR-sw/GSOC/internal/source"
)

// Defaults applied to zero fields of PlayerConfig.
const (
	DefaultBufferSize = 8
	DefaultTolerance  = 2.25
	DefaultPoolSize   = 30
	DefaultPopTimeout = 10 * time.Second
	DefaultYield      = 100 * time.Millisecond
	DefaultWorkWidth  = 320
	DefaultWorkHeight = 180
)

// PlayerConfig assembles a playback session. Source, AudioSink and
// VideoSink are required; Stage is optional and enables enhancement.
type PlayerConfig struct {
	Source    source.Source
	Stage     enhance.Stage
	AudioSink sink.AudioSink
	VideoSink sink.VideoSink

	BufferSize int           // startup fill threshold, in chunks and batches
	Tolerance  float64       // pacing fudge subtracted per frame, milliseconds
	PoolSize   int           // enhancement workers
	PopTimeout time.Duration // consumer dequeue bound
	Yield      time.Duration // producer pause between iterations
	WorkWidth  int           // downscale target fed to the stage
	WorkHeight int
	Log        *slog.Logger
}

// Player owns one playback session: the queues, the producer, both
// consumers, the worker pool and the shared run state.
type Player struct {
	id     string
	log    *slog.Logger
	state  *RunState
	stats  *Stats
	pool   *enhance.Pool
	audioQ *Queue[*media.AudioChunk]
	videoQ *Queue[*media.FrameBatch]

	producer *Producer
	audio    *AudioConsumer
	video    *VideoConsumer
}

// NewPlayer wires a session from cfg, applying defaults to zero fields.
func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.PopTimeout == 0 {
		cfg.PopTimeout = DefaultPopTimeout
	}
	if cfg.Yield == 0 {
		cfg.Yield = DefaultYield
	}
	if cfg.WorkWidth == 0 {
		cfg.WorkWidth = DefaultWorkWidth
	}
	if cfg.WorkHeight == 0 {
		cfg.WorkHeight = DefaultWorkHeight
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	p := &Player{
		id:     uuid.NewString()[:8],
		state:  &RunState{},
		stats:  &Stats{},
		audioQ: NewQueue[*media.AudioChunk]("audio", cfg.BufferSize),
		videoQ: NewQueue[*media.FrameBatch]("video", cfg.BufferSize),
	}
	p.log = cfg.Log.With("session", p.id)

	if cfg.Stage != nil {
		p.pool = enhance.NewPool(cfg.PoolSize)
	}
	processor := enhance.NewBatchProcessor(enhance.BatchProcessorConfig{
		Stage:  cfg.Stage,
		Pool:   p.pool,
		Width:  cfg.WorkWidth,
		Height: cfg.WorkHeight,
	})

	p.producer = NewProducer(ProducerConfig{
		Source:     cfg.Source,
		Processor:  processor,
		AudioQueue: p.audioQ,
		VideoQueue: p.videoQ,
		Stats:      p.stats,
		Yield:      cfg.Yield,
		Log:        p.log,
	})
	p.audio = NewAudioConsumer(AudioConsumerConfig{
		Queue:   p.audioQ,
		Sink:    cfg.AudioSink,
		State:   p.state,
		Stats:   p.stats,
		Timeout: cfg.PopTimeout,
		Log:     p.log,
	})
	p.video = NewVideoConsumer(VideoConsumerConfig{
		Queue:     p.videoQ,
		Sink:      cfg.VideoSink,
		State:     p.state,
		Stats:     p.stats,
		FPS:       cfg.Source.FrameRate(),
		Tolerance: cfg.Tolerance,
		Timeout:   cfg.PopTimeout,
		Log:       p.log,
	})
	return p
}

// ID returns the session identifier used in log lines.
func (p *Player) ID() string { return p.id }

// Stats returns a point-in-time snapshot of playback progress.
func (p *Player) Stats() StatsSnapshot {
	return p.stats.snapshot(p.audioQ.Len(), p.videoQ.Len())
}

// Run starts both consumers, drives the producer on the calling goroutine,
// and joins. It returns nil once the source has played out, or the first
// fatal error. A second call returns ErrAlreadyStarted without touching the
// session.
func (p *Player) Run(ctx context.Context) error {
	if !p.state.Start() {
		return ErrAlreadyStarted
	}
	if p.pool != nil {
		defer p.pool.Close()
	}

	p.log.Info("playback starting",
		"seconds", p.producer.seconds,
		"fps", p.producer.framesPerBatch,
		"frame_interval", p.video.Interval())

	g, gctx := errgroup.WithContext(ctx)
	consCtx, halt := context.WithCancel(gctx)
	defer halt()

	g.Go(func() error { return p.audio.Run(consCtx) })
	g.Go(func() error { return p.video.Run(consCtx) })

	perr := p.producer.Run(gctx)
	if perr != nil {
		// Fatal fetch: halt the consumers instead of letting them drain.
		p.state.Stop()
		halt()
	}
	werr := g.Wait()

	switch {
	case perr != nil && !errors.Is(perr, context.Canceled):
		return perr
	case werr != nil && !errors.Is(werr, context.Canceled):
		return werr
	case perr != nil:
		return perr
	}

	s := p.Stats()
	p.log.Info("playback complete",
		"chunks_written", s.ChunksWritten,
		"frames_shown", s.FramesShown)
	return nil
}
