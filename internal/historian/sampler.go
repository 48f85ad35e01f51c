package historian

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/cellwatch/internal/controller"
)

// StateSource is anything that can report a consistent controller state.
type StateSource interface {
	Snapshot() controller.Snapshot
}

// Sampler records the state of a source at a fixed interval.
type Sampler struct {
	store    *Store
	source   StateSource
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSampler returns a sampler. A non-positive interval defaults to 2s.
func NewSampler(store *Store, source StateSource, interval time.Duration, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		store:    store,
		source:   source,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run samples until ctx is cancelled. The first sample is taken
// immediately. Insert failures are logged and do not stop sampling.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	state := s.source.Snapshot()
	if _, err := s.store.Record(ctx, s.now(), state); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("historian sample failed", "error", err)
		return
	}
	s.logger.Debug("historian sample",
		"conveyor_run", state.ConveyorRun,
		"emergency_ok", state.EmergencyOK,
		"quality_score", state.QualityScore,
		"compromised", state.Compromised)
}
