// Package alerts evaluates a small set of rules against the metrics
// registry on a ticker and tracks which alerts are currently firing.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/andinanews/pipeline/metrics"
)

// Severity classifies an alert's urgency.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one firing or previously-firing condition.
type Alert struct {
	RuleName  string    `json:"rule_name"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	FiredAt   time.Time `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Rule evaluates the current metrics snapshot and returns a non-empty
// message if the condition is firing.
type Rule struct {
	Name     string
	Severity Severity
	Evaluate func(status metrics.PipelineStatus) (firing bool, message string)
}

// DefaultRules are the four baseline alert conditions: a phase fallback
// rate above 50%, a dependency breaker reported OPEN, a request error
// rate above 10% (requests recorded with the "error" outcome), and more
// than 1000 tracked jobs. No default rule looks at persistence outcomes.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "high_phase_fallback_rate",
			Severity: SeverityWarning,
			Evaluate: func(status metrics.PipelineStatus) (bool, string) {
				for _, p := range status.Phases {
					if p.Count == 0 {
						continue
					}
					rate := p.FallbackCount / float64(p.Count)
					if rate > 0.5 {
						return true, fmt.Sprintf("phase %s fallback rate %.0f%% exceeds 50%%", p.Phase, rate*100)
					}
				}
				return false, ""
			},
		},
		{
			Name:     "circuit_breaker_open",
			Severity: SeverityCritical,
			Evaluate: func(status metrics.PipelineStatus) (bool, string) {
				for _, d := range status.Dependencies {
					if d.State == "open" {
						return true, fmt.Sprintf("circuit breaker for %s is OPEN", d.Dependency)
					}
				}
				return false, ""
			},
		},
		{
			Name:     "elevated_error_rate",
			Severity: SeverityCritical,
			Evaluate: func(status metrics.PipelineStatus) (bool, string) {
				total := 0.0
				for _, v := range status.RequestsTotal {
					total += v
				}
				if total == 0 {
					return false, ""
				}
				errRate := status.RequestsTotal["error"] / total
				if errRate > 0.1 {
					return true, fmt.Sprintf("request error rate %.0f%% exceeds 10%%", errRate*100)
				}
				return false, ""
			},
		},
		{
			Name:     "job_backlog_high",
			Severity: SeverityWarning,
			Evaluate: func(status metrics.PipelineStatus) (bool, string) {
				if status.ActiveJobs > 1000 {
					return true, fmt.Sprintf("active job count %d exceeds 1000", status.ActiveJobs)
				}
				return false, ""
			},
		},
	}
}

// Manager periodically evaluates rules against a metrics registry and
// tracks active/resolved alert state.
type Manager struct {
	mu       sync.Mutex
	rules    []Rule
	registry *metrics.Registry
	active   map[string]*Alert
	history  []Alert

	stop    chan struct{}
	stopped bool
}

// NewManager builds a Manager with the given rules.
func NewManager(registry *metrics.Registry, rules []Rule) *Manager {
	return &Manager{
		rules:    rules,
		registry: registry,
		active:   map[string]*Alert{},
		stop:     make(chan struct{}),
	}
}

// EvaluateOnce runs every rule once against the current metrics
// snapshot, updating active/resolved alert state.
func (m *Manager) EvaluateOnce() error {
	status, err := m.registry.Snapshot()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rule := range m.rules {
		firing, message := rule.Evaluate(status)
		existing, wasActive := m.active[rule.Name]

		switch {
		case firing && !wasActive:
			m.active[rule.Name] = &Alert{
				RuleName: rule.Name,
				Severity: rule.Severity,
				Message:  message,
				FiredAt:  nowFunc(),
			}
		case firing && wasActive:
			existing.Message = message
		case !firing && wasActive:
			resolvedAt := nowFunc()
			existing.ResolvedAt = &resolvedAt
			m.history = append(m.history, *existing)
			delete(m.active, rule.Name)
		}
	}
	return nil
}

// Run starts a ticker that calls EvaluateOnce on the given interval
// until Stop is called.
func (m *Manager) Run(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = m.EvaluateOnce()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts the background evaluation loop. Safe to call multiple times.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stop)
}

// List returns all currently active alerts.
func (m *Manager) List() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0, len(m.active))
	for _, a := range m.active {
		out = append(out, *a)
	}
	return out
}

// FilterBySeverity returns active alerts matching a severity.
func (m *Manager) FilterBySeverity(sev Severity) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alert
	for _, a := range m.active {
		if a.Severity == sev {
			out = append(out, *a)
		}
	}
	return out
}

// Summary reports how many alerts are active per severity.
func (m *Manager) Summary() map[Severity]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[Severity]int{}
	for _, a := range m.active {
		counts[a.Severity]++
	}
	return counts
}

// Test force-fires a synthetic alert under the given rule name, for the
// alerting system's self-test endpoint.
func (m *Manager) Test(ruleName string, severity Severity) Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert := Alert{
		RuleName: ruleName,
		Severity: severity,
		Message:  fmt.Sprintf("synthetic test alert for rule %q", ruleName),
		FiredAt:  nowFunc(),
	}
	m.active[ruleName] = &alert
	return alert
}

var nowFunc = time.Now
