// Package leaktest detects goroutines left running by background components
// such as worker pools, analytics sinks and connection pools.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

// SettleTimeout bounds how long Check waits for goroutines to exit
const SettleTimeout = 2 * time.Second

const pollInterval = 10 * time.Millisecond

// GoroutineChecker records a goroutine baseline and later verifies the count returned to it
type GoroutineChecker struct {
	t        testing.TB
	baseline int
	timeout  time.Duration
}

// NewGoroutineChecker records the current goroutine count
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()
	runtime.Gosched()
	return &GoroutineChecker{t: t, baseline: runtime.NumGoroutine(), timeout: SettleTimeout}
}

// WithTimeout overrides how long Check waits for the count to settle
func (g *GoroutineChecker) WithTimeout(d time.Duration) *GoroutineChecker {
	g.timeout = d
	return g
}

// Check fails the test if more than tolerance goroutines are still running
// beyond the baseline once the settle timeout has passed.
func (g *GoroutineChecker) Check(tolerance int) {
	g.t.Helper()
	if leaked, ok := g.settle(tolerance); !ok {
		g.t.Errorf("goroutine leak: baseline=%d leaked=%d tolerance=%d", g.baseline, leaked, tolerance)
	}
}

func (g *GoroutineChecker) settle(tolerance int) (int, bool) {
	deadline := time.Now().Add(g.timeout)
	for {
		runtime.Gosched()
		leaked := runtime.NumGoroutine() - g.baseline
		if leaked <= tolerance {
			return leaked, true
		}
		if time.Now().After(deadline) {
			return leaked, false
		}
		time.Sleep(pollInterval)
	}
}

// Run executes fn and fails t if it leaves goroutines behind
func Run(t testing.TB, fn func()) {
	t.Helper()
	checker := NewGoroutineChecker(t)
	fn()
	checker.Check(0)
}
