package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check reports on one dependency.
type Check func(ctx context.Context) error

// Service runs readiness checks against the configured backends.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a new health service. A zero timeout means two seconds.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{checks: map[string]Check{}, timeout: timeout}
}

// Add registers a named check.
func (s *Service) Add(name string, check Check) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Report is the readiness payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every check concurrently and reports "ok" or the error text per
// check.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu     sync.Mutex
		report = Report{OK: true, Checks: make(map[string]string, len(names))}
	)
	var g errgroup.Group
	for _, name := range names {
		check := s.checks[name]
		g.Go(func() error {
			result := "ok"
			if err := check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = result
			if result != "ok" {
				report.OK = false
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}
