package probe

import (
	"sync"

	"github.com/neteye/snmpscope/analyzer"
)

// fakeSink records poll metrics for inspection.
type fakeSink struct {
	mu      sync.Mutex
	metrics []analyzer.Metric
}

func (f *fakeSink) InsertMetric(m analyzer.Metric) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, m)
	return nil
}

func (f *fakeSink) All() []analyzer.Metric {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]analyzer.Metric, len(f.metrics))
	copy(out, f.metrics)
	return out
}
