// Package config loads playback settings from built-in defaults, an
// optional streamer.yaml and STREAMER_* environment variables, in that
// order of precedence. Command-line flags sit on top in cmd.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable of the playback pipeline. Build one with
// Load; File, TFLite, SavedModel and Verbose come from the command line.
type Config struct {
	File       string
	TFLite     string
	SavedModel string
	Verbose    int

	BufferSize int           // queue fill threshold before playback starts
	Tolerance  float64       // milliseconds shaved off the per-frame sleep
	PoolSize   int           // enhancement workers
	PopTimeout time.Duration // consumer dequeue bound
	Yield      time.Duration // producer pause between one-second fetches

	BaseWidth  int
	BaseHeight int
	Downscale  int

	AudioSamples uint16 // device pull size, sample frames

	FFmpeg  string
	FFprobe string
	Python  string
	Script  string
}

// Load reads streamer.yaml from the working directory, $HOME/.streamer or
// /etc/streamer over the defaults; a missing file is fine.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("playback.buffer_size", 8)
	v.SetDefault("playback.tolerance_ms", 2.25)
	v.SetDefault("playback.pool_size", 30)
	v.SetDefault("playback.pop_timeout", "10s")
	v.SetDefault("playback.yield", "100ms")

	v.SetDefault("video.base_width", 1280)
	v.SetDefault("video.base_height", 720)
	v.SetDefault("video.downscale", 4)

	v.SetDefault("audio.samples", 1024)

	v.SetDefault("tools.ffmpeg", "ffmpeg")
	v.SetDefault("tools.ffprobe", "ffprobe")
	v.SetDefault("tools.python", "python3")
	v.SetDefault("tools.script", "scripts/sr_worker.py")

	v.AutomaticEnv()
	v.BindEnv("playback.buffer_size", "STREAMER_BUFFER_SIZE")
	v.BindEnv("playback.tolerance_ms", "STREAMER_TOLERANCE_MS")
	v.BindEnv("playback.pool_size", "STREAMER_POOL_SIZE")
	v.BindEnv("playback.pop_timeout", "STREAMER_POP_TIMEOUT")
	v.BindEnv("playback.yield", "STREAMER_YIELD")
	v.BindEnv("video.base_width", "STREAMER_BASE_WIDTH")
	v.BindEnv("video.base_height", "STREAMER_BASE_HEIGHT")
	v.BindEnv("video.downscale", "STREAMER_DOWNSCALE")
	v.BindEnv("audio.samples", "STREAMER_AUDIO_SAMPLES")
	v.BindEnv("tools.ffmpeg", "STREAMER_FFMPEG")
	v.BindEnv("tools.ffprobe", "STREAMER_FFPROBE")
	v.BindEnv("tools.python", "STREAMER_PYTHON")
	v.BindEnv("tools.script", "STREAMER_SR_SCRIPT")

	v.SetConfigName("streamer")
	v.SetConfigType("yaml")
	for _, path := range []string{".", "$HOME/.streamer", "/etc/streamer"} {
		v.AddConfigPath(os.ExpandEnv(path))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return Config{
		BufferSize:   v.GetInt("playback.buffer_size"),
		Tolerance:    v.GetFloat64("playback.tolerance_ms"),
		PoolSize:     v.GetInt("playback.pool_size"),
		PopTimeout:   v.GetDuration("playback.pop_timeout"),
		Yield:        v.GetDuration("playback.yield"),
		BaseWidth:    v.GetInt("video.base_width"),
		BaseHeight:   v.GetInt("video.base_height"),
		Downscale:    v.GetInt("video.downscale"),
		AudioSamples: uint16(v.GetInt("audio.samples")),
		FFmpeg:       v.GetString("tools.ffmpeg"),
		FFprobe:      v.GetString("tools.ffprobe"),
		Python:       v.GetString("tools.python"),
		Script:       v.GetString("tools.script"),
	}, nil
}

// Enhanced reports whether a super-resolution model was configured.
func (c Config) Enhanced() bool {
	return c.TFLite != "" || c.SavedModel != ""
}

// WorkWidth is the downscaled width fed to the enhancement stage.
func (c Config) WorkWidth() int { return c.BaseWidth / c.Downscale }

// WorkHeight is the downscaled height fed to the enhancement stage.
func (c Config) WorkHeight() int { return c.BaseHeight / c.Downscale }

// WindowSize is the display size: the full base size when enhancement
// restores the downscaled frames, otherwise the downscaled size itself.
func (c Config) WindowSize() (int, int) {
	if c.Enhanced() {
		return c.BaseWidth, c.BaseHeight
	}
	return c.WorkWidth(), c.WorkHeight()
}
