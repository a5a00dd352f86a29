package resolver

import (
	"strconv"

	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
)

// RecordMetrics pushes one manifest's counters into Prometheus. The metrics
// handle may be nil (tests, library use), in which case nothing is recorded.
func RecordMetrics(m *metrics.Metrics, manifest *Manifest, source string) {
	if m == nil {
		return
	}
	for _, r := range manifest.Results {
		if r.Resolved {
			m.RunsResolvedTotal.WithLabelValues(tierLabel(r.TierResolved)).Inc()
		} else {
			m.RunsUnresolvedTotal.Inc()
		}
	}
	m.ResolvePassesTotal.Add(float64(manifest.Passes))
	m.OverflowRunsTotal.Add(float64(manifest.OverflowRuns))
	m.SettleStepsTotal.Add(float64(manifest.SettleSteps))
	if manifest.CompoundResolved > 0 {
		m.HyphenFallbackTotal.WithLabelValues("compound", "resolved").
			Add(float64(manifest.CompoundResolved))
	}
	if manifest.SegmentResolved > 0 {
		m.HyphenFallbackTotal.WithLabelValues("segment", "resolved").
			Add(float64(manifest.SegmentResolved))
	}
	m.ResolveLatency.WithLabelValues(source).
		Observe(float64(manifest.TotalTimeMs) / 1000)
}

func tierLabel(tier int) string {
	if tier >= 0 && tier <= 2 {
		return strconv.Itoa(tier)
	}
	return "other"
}
