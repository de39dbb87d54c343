package observability

import (
	"sort"
	"sync"
	"time"
)

// JobCounts are the in-process outcome counters for one job type, or for
// all of them together.
type JobCounts struct {
	Claimed         uint64        `json:"claimed"`
	Done            uint64        `json:"done"`
	Failed          uint64        `json:"failed"`
	Retried         uint64        `json:"retried"`
	DeadLettered    uint64        `json:"deadLettered"`
	DurationCount   uint64        `json:"durationCount"`
	AverageDuration time.Duration `json:"averageDuration"`
	MaxDuration     time.Duration `json:"maxDuration"`

	durationTotal time.Duration
}

func (c *JobCounts) add(o JobCounts) {
	c.Claimed += o.Claimed
	c.Done += o.Done
	c.Failed += o.Failed
	c.Retried += o.Retried
	c.DeadLettered += o.DeadLettered
	c.DurationCount += o.DurationCount
	c.durationTotal += o.durationTotal
	if o.MaxDuration > c.MaxDuration {
		c.MaxDuration = o.MaxDuration
	}
}

func (c *JobCounts) finish() {
	if c.DurationCount > 0 {
		c.AverageDuration = c.durationTotal / time.Duration(c.DurationCount)
	}
}

// JobMetrics backs the worker's /readyz report. Prometheus keeps the
// long-lived series; this only answers "what has this process done".
type JobMetrics struct {
	mu     sync.Mutex
	byType map[string]*JobCounts
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{byType: make(map[string]*JobCounts)}
}

func (m *JobMetrics) update(jobType string, fn func(c *JobCounts)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byType[jobType]
	if !ok {
		c = &JobCounts{}
		m.byType[jobType] = c
	}
	fn(c)
}

func (m *JobMetrics) IncClaimed(jobType string) {
	m.update(jobType, func(c *JobCounts) { c.Claimed++ })
}

func (m *JobMetrics) IncDone(jobType string) {
	m.update(jobType, func(c *JobCounts) { c.Done++ })
}

// IncFailed records a terminal failure; every terminal failure is dead-lettered.
func (m *JobMetrics) IncFailed(jobType string) {
	m.update(jobType, func(c *JobCounts) {
		c.Failed++
		c.DeadLettered++
	})
}

func (m *JobMetrics) IncRetried(jobType string) {
	m.update(jobType, func(c *JobCounts) { c.Retried++ })
}

func (m *JobMetrics) ObserveDuration(jobType string, d time.Duration) {
	m.update(jobType, func(c *JobCounts) {
		c.DurationCount++
		c.durationTotal += d
		if d > c.MaxDuration {
			c.MaxDuration = d
		}
	})
}

// JobMetricsSnapshot embeds the totals across types; ByType is keyed by job type.
type JobMetricsSnapshot struct {
	JobCounts
	ByType map[string]JobCounts `json:"byType"`
}

func (m *JobMetrics) Snapshot() JobMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, 0, len(m.byType))
	for t := range m.byType {
		types = append(types, t)
	}
	sort.Strings(types)

	s := JobMetricsSnapshot{ByType: make(map[string]JobCounts, len(types))}
	for _, t := range types {
		c := *m.byType[t]
		s.JobCounts.add(c)
		c.finish()
		s.ByType[t] = c
	}
	s.JobCounts.finish()
	return s
}
