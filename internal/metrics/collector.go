// Package metrics provides in-memory session usage statistics.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpLogin    = "login"
	OpRegister = "register"
	OpChat     = "chat"
	OpHistory  = "history"
	OpRecharge = "recharge"
)

// CallMetrics holds aggregated timing for a single gateway operation.
type CallMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// CallSnapshot provides computed stats from raw call metrics.
type CallSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the session statistics at a point in time.
type Snapshot struct {
	SessionSeconds float64
	TurnsCommitted int64
	TokensUsed     int64
	AmountSpent    float64
	Calls          map[string]CallSnapshot
}

// Collector aggregates in-memory usage statistics for the current session.
// All methods are thread-safe; it is shared between the gateway (timings)
// and the chat controller (token/cost accounting).
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time

	turnsCommitted int64
	tokensUsed     int64
	amountSpent    float64

	calls map[string]*CallMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		calls:     make(map[string]*CallMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold the write lock.
func (c *Collector) getOrCreate(op string) *CallMetrics {
	m, ok := c.calls[op]
	if !ok {
		m = &CallMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.calls[op] = m
	}
	return m
}

// RecordCall records the duration of one gateway call.
func (c *Collector) RecordCall(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordTurn records the token and cost accounting of one committed chat
// turn. Failed turns bill nothing and are not recorded.
func (c *Collector) RecordTurn(tokensUsed int64, amountUsed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turnsCommitted++
	c.tokensUsed += tokensUsed
	c.amountSpent += amountUsed
}

// snapshotCall creates a snapshot for an operation, returning a zero value
// and false if no data was recorded.
func snapshotCall(m *CallMetrics) (CallSnapshot, bool) {
	if m == nil || m.Count == 0 {
		return CallSnapshot{}, false
	}
	return CallSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}, true
}

// Snapshot returns a point-in-time snapshot of all session statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		SessionSeconds: time.Since(c.startTime).Seconds(),
		TurnsCommitted: c.turnsCommitted,
		TokensUsed:     c.tokensUsed,
		AmountSpent:    c.amountSpent,
		Calls:          make(map[string]CallSnapshot, len(c.calls)),
	}
	for op, m := range c.calls {
		if cs, ok := snapshotCall(m); ok {
			snap.Calls[op] = cs
		}
	}
	return snap
}
