package source

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// FileSource decodes a media file through ffmpeg: video as rawvideo rgb24
// scaled to a fixed geometry, audio as pcm_f32le stereo at the probed sample
// rate. Stream properties come from ffprobe. Two decoder processes run for
// the lifetime of the source, one per media type, each read through a stdout
// pipe.
type FileSource struct {
	path       string
	width      int
	height     int
	frameRate  float64
	duration   float64
	sampleRate int

	ffmpeg  string
	ffprobe string

	videoCmd *exec.Cmd
	audioCmd *exec.Cmd
	videoOut io.ReadCloser
	audioOut io.ReadCloser

	log *slog.Logger
}

// FileOptGeometry sets the decode geometry (default 1280x720).
func FileOptGeometry(w, h int) func(*FileSource) {
	return func(s *FileSource) {
		s.width = w
		s.height = h
	}
}

// FileOptBinaries overrides the ffmpeg and ffprobe binary names.
func FileOptBinaries(ffmpeg, ffprobe string) func(*FileSource) {
	return func(s *FileSource) {
		s.ffmpeg = ffmpeg
		s.ffprobe = ffprobe
	}
}

// OpenFile probes path and starts both decoder processes. The context bounds
// the lifetime of the decoders; cancelling it kills them.
func OpenFile(ctx context.Context, path string, opts ...func(*FileSource)) (*FileSource, error) {
	s := &FileSource{
		path:    path,
		width:   1280,
		height:  720,
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		log:     slog.With("component", "source"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.probe(ctx); err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if err := s.startDecoders(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start decoders: %w", err)
	}

	s.log.Debug("file source opened",
		"path", path,
		"fps", s.frameRate,
		"duration", s.duration,
		"sample_rate", s.sampleRate)
	return s, nil
}

// FrameRate returns the probed video frame rate.
func (s *FileSource) FrameRate() float64 { return s.frameRate }

// Duration returns the probed stream duration in seconds.
func (s *FileSource) Duration() float64 { return s.duration }

// SampleRate returns the probed audio sample rate.
func (s *FileSource) SampleRate() int { return s.sampleRate }

func (s *FileSource) probe(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, s.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,duration",
		"-of", "csv=p=0",
		s.path,
	).Output()
	if err != nil {
		return fmt.Errorf("ffprobe video: %w", err)
	}

	rate, duration, err := parseVideoProbe(string(out))
	if err != nil {
		return err
	}
	s.frameRate = rate
	s.duration = duration

	// Container formats without a per-stream duration report it at the
	// format level instead.
	if s.duration == 0 {
		out, err = exec.CommandContext(ctx, s.ffprobe,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "csv=p=0",
			s.path,
		).Output()
		if err != nil {
			return fmt.Errorf("ffprobe duration: %w", err)
		}
		s.duration, _ = strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	}
	if s.duration == 0 {
		return errors.New("could not determine duration")
	}

	out, err = exec.CommandContext(ctx, s.ffprobe,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-of", "csv=p=0",
		s.path,
	).Output()
	if err != nil {
		return fmt.Errorf("ffprobe audio: %w", err)
	}
	s.sampleRate, err = strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || s.sampleRate == 0 {
		return errors.New("no audio stream")
	}
	return nil
}

func (s *FileSource) startDecoders(ctx context.Context) error {
	s.videoCmd = exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error",
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vf", fmt.Sprintf("scale=%d:%d", s.width, s.height),
		"-",
	)
	videoOut, err := s.videoCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("video stdout pipe: %w", err)
	}
	s.videoOut = videoOut
	if err := s.videoCmd.Start(); err != nil {
		return fmt.Errorf("start video decoder: %w", err)
	}

	s.audioCmd = exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error",
		"-i", s.path,
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", strconv.Itoa(media.AudioChannels),
		"-ar", strconv.Itoa(s.sampleRate),
		"-",
	)
	audioOut, err := s.audioCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audio stdout pipe: %w", err)
	}
	s.audioOut = audioOut
	if err := s.audioCmd.Start(); err != nil {
		return fmt.Errorf("start audio decoder: %w", err)
	}
	return nil
}

// NextFrame reads one decoded frame from the video pipe.
func (s *FileSource) NextFrame() (*media.Frame, error) {
	f := media.NewFrame(s.width, s.height)
	if _, err := io.ReadFull(s.videoOut, f.Pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return f, nil
}

// NextChunk reads up to n sample frames from the audio pipe. The final chunk
// of a stream may be short; the next call returns io.EOF.
func (s *FileSource) NextChunk(n int) (*media.AudioChunk, error) {
	raw := make([]byte, n*media.AudioChannels*4)
	read, err := io.ReadFull(s.audioOut, raw)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Keep whole sample frames only.
		read -= read % (media.AudioChannels * 4)
		if read == 0 {
			return nil, io.EOF
		}
		raw = raw[:read]
	case err != nil:
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &media.AudioChunk{Samples: samplesFromBytes(raw)}, nil
}

// Close kills both decoder processes and reaps them.
func (s *FileSource) Close() error {
	for _, cmd := range []*exec.Cmd{s.videoCmd, s.audioCmd} {
		if cmd == nil || cmd.Process == nil {
			continue
		}
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return nil
}

// parseVideoProbe parses the csv line "r_frame_rate,duration" emitted by
// ffprobe for the first video stream. Duration may be absent.
func parseVideoProbe(out string) (rate float64, duration float64, err error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return 0, 0, fmt.Errorf("unexpected ffprobe output: %q", out)
	}
	fields := strings.Split(lines[0], ",")

	rate, err = parseRate(fields[0])
	if err != nil {
		return 0, 0, err
	}
	if len(fields) > 1 {
		duration, _ = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	}
	return rate, duration, nil
}

// parseRate parses an ffprobe rational frame rate such as "30000/1001".
// A plain decimal is accepted as well.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		rate, err := strconv.ParseFloat(s, 64)
		if err != nil || rate <= 0 {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
		return rate, nil
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return n / d, nil
}

func samplesFromBytes(raw []byte) []float32 {
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples
}
