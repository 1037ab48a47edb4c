package health

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Versioner reports the published manifest version.
type Versioner interface {
	Version() int64
}

// ClientCounter reports the number of connected stream clients.
type ClientCounter interface {
	Count() int
}

// Status is the health response.
type Status struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
	Clients int    `json:"clients"`
	Uptime  int64  `json:"uptime"`
}

// Service reports process health.
type Service struct {
	manifest Versioner
	clients  ClientCounter
	clock    clockwork.Clock
	started  time.Time
}

// NewService creates a new health service. Uptime is counted from here.
func NewService(m Versioner, clients ClientCounter, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{manifest: m, clients: clients, clock: clock, started: clock.Now()}
}

// Status returns the current health.
func (s *Service) Status() Status {
	return Status{
		Status:  "ok",
		Version: s.manifest.Version(),
		Clients: s.clients.Count(),
		Uptime:  int64(s.clock.Since(s.started).Seconds()),
	}
}
