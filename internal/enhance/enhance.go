// Package enhance turns one second of decoded frames into a display batch:
// bicubic downscale to the working resolution, float conversion, then an
// optional super-resolution stage run concurrently across a shared worker
// pool with input order preserved.
package enhance

import (
	"context"
	"fmt"

	"github.com/AIGR-sw/GSOC/internal/media"
)

// Stage upscales a single downscaled frame. Implementations must be safe for
// concurrent calls; the batch processor issues one call per pool worker.
type Stage interface {
	Enhance(ctx context.Context, frame *media.FloatFrame) (*media.Frame, error)
}

// InferenceError reports an enhancement failure for one frame of a batch.
// The containing batch is discarded whole; no partial batch reaches the
// video sink.
type InferenceError struct {
	Frame int // index within the batch
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed for frame %d: %v", e.Frame, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
