package enhance

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/AIGR-sw/GSOC/internal/media"
)

const (
	sidecarWriteTimeout = 2 * time.Second
	sidecarStopTimeout  = 2 * time.Second
)

// PythonStageConfig holds the parameters for the sidecar bridge. Exactly one
// of TFLite or SavedModel selects the model the sidecar loads.
type PythonStageConfig struct {
	Python     string // interpreter, default "python3"
	Script     string // worker script, default "scripts/sr_worker.py"
	TFLite     string // path to a TFLite model file
	SavedModel string // path to a SavedModel directory
}

// PythonStage runs super-resolution in a Python sidecar hosting the TFLite
// interpreter or a SavedModel. Requests and responses are MessagePack maps
// with 4-byte big-endian length-prefix framing over stdin/stdout; concurrent
// Enhance calls are correlated by request id.
type PythonStage struct {
	cfg PythonStageConfig
	log *slog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.ReadCloser

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan stageResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Bool
}

type stageResult struct {
	frame *media.Frame
	err   error
}

type stageResponse struct {
	ID     uint64 `msgpack:"id"`
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Frame  []byte `msgpack:"frame"`
	Error  string `msgpack:"error"`
}

// NewPythonStage validates cfg; Start launches the sidecar.
func NewPythonStage(cfg PythonStageConfig) (*PythonStage, error) {
	if cfg.TFLite == "" && cfg.SavedModel == "" {
		return nil, errors.New("either a tflite or saved_model path is required")
	}
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Script == "" {
		cfg.Script = "scripts/sr_worker.py"
	}
	return &PythonStage{
		cfg:     cfg,
		pending: make(map[uint64]chan stageResult),
		log:     slog.With("component", "sr-worker"),
	}, nil
}

// Start spawns the sidecar process and its reader goroutines. The context
// bounds the sidecar's lifetime.
func (p *PythonStage) Start(ctx context.Context) error {
	if p.active.Load() {
		return errors.New("stage already started")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)

	args := []string{p.cfg.Script}
	if p.cfg.TFLite != "" {
		args = append(args, "--tflite", p.cfg.TFLite)
	}
	if p.cfg.SavedModel != "" {
		args = append(args, "--saved-model", p.cfg.SavedModel)
	}
	p.cmd = exec.CommandContext(p.ctx, p.cfg.Python, args...)

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	p.stdin = stdin
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	p.stdout = stdout
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	p.stderr = stderr

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start sidecar: %w", err)
	}
	p.active.Store(true)

	p.wg.Add(3)
	go p.readResponses()
	go p.logStderr()
	go p.waitProcess()

	p.log.Info("sidecar started",
		"pid", p.cmd.Process.Pid,
		"tflite", p.cfg.TFLite,
		"saved_model", p.cfg.SavedModel)
	return nil
}

// Enhance sends one frame to the sidecar and waits for the enhanced result.
// Safe for concurrent use.
func (p *PythonStage) Enhance(ctx context.Context, frame *media.FloatFrame) (*media.Frame, error) {
	if !p.active.Load() {
		return nil, errors.New("stage not started")
	}

	id := p.nextID.Add(1)
	ch := make(chan stageResult, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.writeRequest(id, frame); err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res.frame, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, errors.New("sidecar exited")
	}
}

func (p *PythonStage) writeRequest(id uint64, frame *media.FloatFrame) error {
	payload, err := msgpack.Marshal(map[string]interface{}{
		"id":     id,
		"width":  frame.Width,
		"height": frame.Height,
		"frame":  floatBytes(frame.Data),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	// Framed writes go through a goroutine so a hung sidecar cannot block
	// the caller past the write timeout.
	done := make(chan error, 1)
	go func() {
		p.writeMu.Lock()
		defer p.writeMu.Unlock()
		done <- writeFramed(p.stdin, payload)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write request: %w", err)
		}
		return nil
	case <-time.After(sidecarWriteTimeout):
		return errors.New("sidecar stdin write timeout")
	case <-p.ctx.Done():
		return errors.New("sidecar stopped during write")
	}
}

func (p *PythonStage) readResponses() {
	defer p.wg.Done()

	for {
		payload, err := readFramed(p.stdout)
		if err != nil {
			if !errors.Is(err, io.EOF) && p.ctx.Err() == nil {
				p.log.Error("sidecar read failed", "error", err)
			}
			return
		}

		var resp stageResponse
		if err := msgpack.Unmarshal(payload, &resp); err != nil {
			p.log.Error("bad sidecar response", "error", err, "bytes", len(payload))
			continue
		}

		p.mu.Lock()
		ch := p.pending[resp.ID]
		p.mu.Unlock()
		if ch == nil {
			p.log.Warn("response for unknown request", "id", resp.ID)
			continue
		}

		switch {
		case resp.Error != "":
			ch <- stageResult{err: errors.New(resp.Error)}
		case len(resp.Frame) != resp.Width*resp.Height*media.FrameChannels:
			ch <- stageResult{err: fmt.Errorf("bad frame size %d for %dx%d", len(resp.Frame), resp.Width, resp.Height)}
		default:
			ch <- stageResult{frame: &media.Frame{
				Width:  resp.Width,
				Height: resp.Height,
				Pix:    resp.Frame,
			}}
		}
	}
}

// logStderr forwards sidecar stderr lines into slog, mapped by the [LEVEL]
// prefix the worker script emits.
func (p *PythonStage) logStderr() {
	defer p.wg.Done()

	scanner := bufio.NewScanner(p.stderr)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "[ERROR]") || strings.Contains(line, "[CRITICAL]"):
			p.log.Error("sidecar", "log", line)
		case strings.Contains(line, "[WARNING]"):
			p.log.Warn("sidecar", "log", line)
		default:
			p.log.Debug("sidecar", "log", line)
		}
	}
}

// waitProcess reaps the sidecar and unblocks pending calls when it exits.
func (p *PythonStage) waitProcess() {
	defer p.wg.Done()

	err := p.cmd.Wait()
	expected := p.ctx.Err() != nil
	p.cancel()

	switch {
	case err == nil:
		p.log.Debug("sidecar exited cleanly")
	case expected:
		p.log.Debug("sidecar exited", "error", err)
	default:
		p.log.Error("sidecar exited unexpectedly", "error", err)
	}
}

// Stop closes stdin so the sidecar drains and exits, then kills it if it has
// not gone away within the stop timeout.
func (p *PythonStage) Stop() error {
	if !p.active.CompareAndSwap(true, false) {
		return nil
	}

	if p.stdin != nil {
		p.stdin.Close()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(sidecarStopTimeout):
		p.log.Warn("sidecar stop timeout, killing process")
		p.cancel()
		<-done
	}
	p.cancel()
	return nil
}

// writeFramed writes a 4-byte big-endian length prefix followed by payload.
func writeFramed(w io.Writer, payload []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFramed reads one length-prefixed message.
func readFramed(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, binary.BigEndian.Uint32(prefix[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func floatBytes(data []float32) []byte {
	raw := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return raw
}
