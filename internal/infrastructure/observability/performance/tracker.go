package performance

import (
	"sync"
	"time"
)

// Tracker aggregates completed markers per operation
type Tracker struct {
	mu            sync.RWMutex
	stats         map[string]*OperationStats
	slowThreshold time.Duration
	onSlow        func(*Marker)
	started       time.Time
}

// OperationStats is the running summary for one operation name
type OperationStats struct {
	Count         int64         `json:"count"`
	Failures      int64         `json:"failures"`
	TotalDuration time.Duration `json:"totalDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
	SlowCount     int64         `json:"slowCount"`
}

// AverageDuration returns the mean duration over all completed markers
func (s OperationStats) AverageDuration() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Count)
}

// NewTracker creates a tracker. onSlow, when set, is called for every marker
// whose duration exceeds slowThreshold.
func NewTracker(slowThreshold time.Duration, onSlow func(*Marker)) *Tracker {
	return &Tracker{
		stats:         make(map[string]*OperationStats),
		slowThreshold: slowThreshold,
		onSlow:        onSlow,
		started:       time.Now(),
	}
}

// StartOperation creates a marker that reports back to the tracker when completed
func (t *Tracker) StartOperation(operation string) *Marker {
	return &Marker{
		Operation:  operation,
		StartTime:  time.Now(),
		Metadata:   make(map[string]any),
		Success:    true,
		onComplete: t.record,
	}
}

func (t *Tracker) record(m *Marker) {
	slow := t.slowThreshold > 0 && m.Duration > t.slowThreshold

	t.mu.Lock()
	s, ok := t.stats[m.Operation]
	if !ok {
		s = &OperationStats{}
		t.stats[m.Operation] = s
	}
	s.Count++
	if !m.Success {
		s.Failures++
	}
	s.TotalDuration += m.Duration
	if m.Duration > s.MaxDuration {
		s.MaxDuration = m.Duration
	}
	if slow {
		s.SlowCount++
	}
	t.mu.Unlock()

	if slow && t.onSlow != nil {
		t.onSlow(m)
	}
}

// Snapshot returns a copy of the per-operation statistics
func (t *Tracker) Snapshot() map[string]OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]OperationStats, len(t.stats))
	for op, s := range t.stats {
		out[op] = *s
	}
	return out
}

// Uptime returns the time since the tracker was created
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
