package pipeline

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at     time.Time
	format string
	millis int64
	failed bool
}

// StatsSnapshot aggregates the export samples inside the window.
type StatsSnapshot struct {
	Count    int            `json:"count"`
	Failed   int            `json:"failed"`
	ByFormat map[string]int `json:"by_format"`
	MinMs    int64          `json:"min_ms"`
	MaxMs    int64          `json:"max_ms"`
	AvgMs    float64        `json:"avg_ms"`
	P50Ms    float64        `json:"p50_ms"`
	P95Ms    float64        `json:"p95_ms"`
}

// Stats keeps export latencies for a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

// Record adds one export outcome. Negative durations count as zero.
func (s *Stats) Record(format string, millis int64, failed bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(now)
	s.samples = append(s.samples, sample{at: now, format: format, millis: max(millis, 0), failed: failed})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(time.Now())

	snap := StatsSnapshot{ByFormat: map[string]int{}}
	if len(s.samples) == 0 {
		return snap
	}

	durations := make([]int64, len(s.samples))
	var total int64
	for i, sm := range s.samples {
		durations[i] = sm.millis
		total += sm.millis
		snap.ByFormat[sm.format]++
		if sm.failed {
			snap.Failed++
		}
	}
	slices.Sort(durations)

	snap.Count = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(total) / float64(len(durations))
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	return snap
}

func (s *Stats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
