package reconcile

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// driftGate rate limits drift checks requested from the read path. At most
// one requested check runs at a time and none starts within interval of the
// last completed drift or full pass.
type driftGate struct {
	clock    clockwork.Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	sf singleflight.Group
}

func newDriftGate(clock clockwork.Clock, interval time.Duration) *driftGate {
	return &driftGate{clock: clock, interval: interval}
}

// due reports whether a requested check may start now.
func (g *driftGate) due() bool {
	if g.interval <= 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last.IsZero() || g.clock.Since(g.last) >= g.interval
}

// mark records a completed tree-wide pass.
func (g *driftGate) mark() {
	g.mu.Lock()
	g.last = g.clock.Now()
	g.mu.Unlock()
}

// request starts fn in the background when due. Concurrent requests share
// one run.
func (g *driftGate) request(fn func()) bool {
	if !g.due() {
		return false
	}
	g.sf.DoChan("drift", func() (interface{}, error) {
		fn()
		return nil, nil
	})
	return true
}
