package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Service runs named dependency checks.
type Service struct {
	timeout time.Duration
	checks  map[string]Check
}

// NewService constructs a new health service.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{timeout: timeout, checks: map[string]Check{}}
}

// Register adds a named check. Nil checks are ignored.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every check concurrently. ok is false when any check fails.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = "ok"
		}(i, s.checks[name])
	}
	wg.Wait()

	report := Report{OK: true}
	if len(names) > 0 {
		report.Checks = make(map[string]string, len(names))
	}
	for i, name := range names {
		report.Checks[name] = results[i]
		if results[i] != "ok" {
			report.OK = false
		}
	}
	return report
}
