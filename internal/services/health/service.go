package health

import (
	"context"
	"sort"
	"time"
)

// Check reports a dependency failure as a non-nil error.
type Check func(ctx context.Context) error

// Service runs dependency checks for the health endpoint.
type Service struct {
	Checks  map[string]Check
	Timeout time.Duration
}

// NewService constructs a health service with no checks.
func NewService() *Service {
	return &Service{Checks: map[string]Check{}, Timeout: 2 * time.Second}
}

// Add registers a named check.
func (s *Service) Add(name string, check Check) {
	if s.Checks == nil {
		s.Checks = map[string]Check{}
	}
	s.Checks[name] = check
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every check; OK is false when any check fails.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if s == nil || len(s.Checks) == 0 {
		return report
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	names := make([]string, 0, len(s.Checks))
	for name := range s.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report.Checks = make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.Checks[name](checkCtx)
		cancel()
		if err != nil {
			report.OK = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
