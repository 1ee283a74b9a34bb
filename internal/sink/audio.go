package sink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/AIGR-sw/GSOC/internal/media"
)

const drainPoll = 10 * time.Millisecond

// DeviceConfig describes the audio output. SampleRate is required and must
// match the source; Samples is the device pull size in sample frames.
type DeviceConfig struct {
	SampleRate int
	Samples    uint16
}

// Device plays interleaved float32 stereo on the default SDL audio output.
// Write queues a chunk and then blocks until everything queued ahead of it
// has drained, so a steady caller is paced to real time the way a blocking
// device write would be. sdl.Init must have run before NewDevice.
type Device struct {
	id     sdl.AudioDeviceID
	spec   sdl.AudioSpec
	closed atomic.Bool
	log    *slog.Logger
}

// NewDevice opens and unpauses the default audio output.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Samples == 0 {
		cfg.Samples = 1024
	}
	want := sdl.AudioSpec{
		Freq:     int32(cfg.SampleRate),
		Format:   sdl.AUDIO_F32SYS,
		Channels: media.AudioChannels,
		Samples:  cfg.Samples,
	}
	var have sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	sdl.PauseAudioDevice(id, false)

	log := slog.With("component", "audio-device")
	log.Debug("device opened", "rate", have.Freq, "samples", have.Samples)
	return &Device{id: id, spec: have, log: log}, nil
}

// Write queues samples, then blocks until at most this chunk remains in the
// device queue.
func (d *Device) Write(samples []float32) error {
	if d.closed.Load() {
		return errors.New("audio device closed")
	}

	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.NativeEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	if err := sdl.QueueAudio(d.id, buf); err != nil {
		return fmt.Errorf("queue audio: %w", err)
	}

	for sdl.GetQueuedAudioSize(d.id) > uint32(len(buf)) {
		if d.closed.Load() {
			return errors.New("audio device closed")
		}
		time.Sleep(drainPoll)
	}
	return nil
}

// Drain blocks until the device queue has played out, bounded by ctx. Call
// it before Close after a clean run so the final chunk is not clipped.
func (d *Device) Drain(ctx context.Context) error {
	for sdl.GetQueuedAudioSize(d.id) > 0 {
		if d.closed.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(drainPoll):
		}
	}
	return nil
}

// Close stops playback immediately, dropping anything still queued.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	sdl.ClearQueuedAudio(d.id)
	sdl.CloseAudioDevice(d.id)
	return nil
}
