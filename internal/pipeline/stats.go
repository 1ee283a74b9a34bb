package pipeline

import "sync/atomic"

// Stats tracks playback progress with counters safe for concurrent update
// from the producer and both consumers.
type Stats struct {
	ChunksProduced  atomic.Int64
	BatchesProduced atomic.Int64
	ChunksWritten   atomic.Int64
	BatchesShown    atomic.Int64
	FramesShown     atomic.Int64
}

// StatsSnapshot is a point-in-time copy for logging and the end-of-run
// summary.
type StatsSnapshot struct {
	ChunksProduced  int64
	BatchesProduced int64
	ChunksWritten   int64
	BatchesShown    int64
	FramesShown     int64
	AudioQueueDepth int
	VideoQueueDepth int
}

func (s *Stats) snapshot(audioDepth, videoDepth int) StatsSnapshot {
	return StatsSnapshot{
		ChunksProduced:  s.ChunksProduced.Load(),
		BatchesProduced: s.BatchesProduced.Load(),
		ChunksWritten:   s.ChunksWritten.Load(),
		BatchesShown:    s.BatchesShown.Load(),
		FramesShown:     s.FramesShown.Load(),
		AudioQueueDepth: audioDepth,
		VideoQueueDepth: videoDepth,
	}
}
