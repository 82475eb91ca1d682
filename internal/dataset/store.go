package dataset

import (
	"errors"
	"sync/atomic"

	"github.com/clinsight/clinic-analytics/internal/observability/metrics"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

// ErrNotLoaded is returned when a snapshot is requested before any load
// has succeeded.
var ErrNotLoaded = errors.New("dataset: data files not loaded")

// Store owns the process-wide snapshot. Readers get the current snapshot
// lock-free; Reload builds a complete replacement aside and swaps it in a
// single atomic step, so a failed reload leaves the served data intact and
// concurrent readers never observe a partially-built table.
type Store struct {
	loader  *Loader
	logger  *logging.Logger
	metrics *metrics.AnalyticsMetrics
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store around the given loader. No data is loaded yet.
func NewStore(loader *Loader, m *metrics.AnalyticsMetrics, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{loader: loader, logger: logger, metrics: m}
}

// Loaded reports whether a snapshot is currently available.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Snapshot returns the current snapshot, or ErrNotLoaded.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Reload re-runs the loader and swaps in the new snapshot only if every
// file parsed successfully. On failure the previous snapshot stays live.
func (s *Store) Reload() error {
	snap, err := s.loader.Load()
	if err != nil {
		s.metrics.ObserveLoad("error")
		s.logger.Error("dataset load failed", "error", err)
		return err
	}

	s.current.Store(snap)
	s.metrics.ObserveLoad("success")
	s.metrics.SetRows("appointments", len(snap.Appointments))
	s.metrics.SetRows("patients", len(snap.Patients))
	s.metrics.SetRows("slots", len(snap.Slots))
	s.metrics.SetRows("fact", len(snap.Fact))
	s.logger.Info("dataset loaded",
		"appointments", len(snap.Appointments),
		"patients", len(snap.Patients),
		"slots", len(snap.Slots),
		"fact_rows", len(snap.Fact),
	)
	return nil
}
