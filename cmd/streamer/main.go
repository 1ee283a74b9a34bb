package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/AIGR-sw/GSOC/internal/config"
	"github.com/AIGR-sw/GSOC/internal/enhance"
	"github.com/AIGR-sw/GSOC/internal/pipeline"
	"github.com/AIGR-sw/GSOC/internal/sink"
	"github.com/AIGR-sw/GSOC/internal/source"
)

var version = "dev"

var (
	flagFile       string
	flagTFLite     string
	flagSavedModel string
	flagVerbose    int
)

var rootCmd = &cobra.Command{
	Use:   "streamer",
	Short: "Buffered video playback with optional super-resolution",
	Long: `streamer plays a video file with synchronized audio. Frames are
decoded, downscaled to a quarter of the base resolution and, when a model
is given, restored through an external super-resolution worker before
display.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagFile, "file", "", "video file to play")
	rootCmd.Flags().StringVar(&flagTFLite, "tflite", "", "TFLite super-resolution model")
	rootCmd.Flags().StringVar(&flagSavedModel, "saved_model", "", "SavedModel super-resolution model")
	rootCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity, repeatable")
	rootCmd.MarkFlagRequired("file")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("streamer failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.File = flagFile
	cfg.TFLite = flagTFLite
	cfg.SavedModel = flagSavedModel
	cfg.Verbose = flagVerbose
	config.SetupLogging(cfg.Verbose)

	if cfg.TFLite != "" && cfg.SavedModel != "" {
		return errors.New("--tflite and --saved_model are mutually exclusive")
	}

	slog.Info("streamer starting",
		"version", version,
		"file", cfg.File,
		"enhanced", cfg.Enhanced())

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("init SDL: %w", err)
	}
	defer sdl.Quit()

	src, err := source.OpenFile(ctx, cfg.File,
		source.FileOptGeometry(cfg.BaseWidth, cfg.BaseHeight),
		source.FileOptBinaries(cfg.FFmpeg, cfg.FFprobe))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	slog.Info("source opened",
		"fps", src.FrameRate(),
		"duration", src.Duration(),
		"sample_rate", src.SampleRate())

	var stage enhance.Stage
	if cfg.Enhanced() {
		worker, err := enhance.NewPythonStage(enhance.PythonStageConfig{
			Python:     cfg.Python,
			Script:     cfg.Script,
			TFLite:     cfg.TFLite,
			SavedModel: cfg.SavedModel,
		})
		if err != nil {
			return err
		}
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("start sr worker: %w", err)
		}
		defer worker.Stop()
		stage = worker
	}

	winW, winH := cfg.WindowSize()
	window, err := sink.NewWindow(sink.WindowConfig{
		Title:  "streamer " + filepath.Base(cfg.File),
		Width:  winW,
		Height: winH,
	})
	if err != nil {
		return err
	}
	defer window.Close()

	device, err := sink.NewDevice(sink.DeviceConfig{
		SampleRate: src.SampleRate(),
		Samples:    cfg.AudioSamples,
	})
	if err != nil {
		return err
	}
	defer device.Close()

	player := pipeline.NewPlayer(pipeline.PlayerConfig{
		Source:     src,
		Stage:      stage,
		AudioSink:  device,
		VideoSink:  window,
		BufferSize: cfg.BufferSize,
		Tolerance:  cfg.Tolerance,
		PoolSize:   cfg.PoolSize,
		PopTimeout: cfg.PopTimeout,
		Yield:      cfg.Yield,
		WorkWidth:  cfg.WorkWidth(),
		WorkHeight: cfg.WorkHeight(),
	})

	if err := player.Run(ctx); err != nil {
		return err
	}

	// Let the tail of the audio queue play out before tearing the device down.
	if err := device.Drain(ctx); err != nil {
		return err
	}

	s := player.Stats()
	slog.Info("done",
		"chunks", s.ChunksWritten,
		"batches", s.BatchesShown,
		"frames", s.FramesShown)
	return nil
}
