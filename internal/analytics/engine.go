package analytics

import (
	"errors"
	"math"
	"sort"

	"github.com/clinsight/clinic-analytics/internal/dataset"
)

// ErrInvalidTimeframe is a client-input failure, distinct from the
// data-not-loaded failure.
var ErrInvalidTimeframe = errors.New("analytics: invalid timeframe, use 'day', 'week', or 'month'")

// Engine runs read-only aggregation queries against the store's current
// snapshot. Every query re-reads the snapshot, so a reload between two
// requests is picked up without coordination.
type Engine struct {
	store *dataset.Store
}

func NewEngine(store *dataset.Store) *Engine {
	if store == nil {
		panic("analytics: dataset store required")
	}
	return &Engine{store: store}
}

func (e *Engine) snapshot() (*dataset.Snapshot, error) {
	return e.store.Snapshot()
}

// sortedKeys returns the map's keys in ascending order, matching the
// group-key ordering of every aggregation result.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mean averages the non-NaN values; an empty or all-NaN input yields NaN.
func mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// median returns the middle non-NaN value (average of the two middle
// values for even counts); NaN when no values.
func median(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	mid := len(clean) / 2
	if len(clean)%2 == 1 {
		return clean[mid]
	}
	return (clean[mid-1] + clean[mid]) / 2
}

// sampleStd is the n-1 standard deviation; NaN with fewer than two values.
func sampleStd(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return math.NaN()
	}
	m := mean(clean)
	var sq float64
	for _, v := range clean {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(clean)-1))
}
