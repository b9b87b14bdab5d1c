package alerts

import (
	"testing"
	"time"

	"github.com/andinanews/pipeline/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_FiresWhenBreakerOpen(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.SetBreakerState("llm", 2)

	m := NewManager(reg, DefaultRules())
	require.NoError(t, m.EvaluateOnce())

	active := m.List()
	require.Len(t, active, 1)
	assert.Equal(t, "circuit_breaker_open", active[0].RuleName)
	assert.Equal(t, SeverityCritical, active[0].Severity)
}

func TestManager_ResolvesWhenConditionClears(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.SetBreakerState("llm", 2)

	m := NewManager(reg, DefaultRules())
	require.NoError(t, m.EvaluateOnce())
	require.Len(t, m.List(), 1)

	reg.SetBreakerState("llm", 0)
	require.NoError(t, m.EvaluateOnce())

	assert.Empty(t, m.List())
}

func TestManager_FilterBySeverity(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.SetBreakerState("llm", 2)
	reg.SetActiveJobs(2000)

	m := NewManager(reg, DefaultRules())
	require.NoError(t, m.EvaluateOnce())

	critical := m.FilterBySeverity(SeverityCritical)
	warning := m.FilterBySeverity(SeverityWarning)
	assert.Len(t, critical, 1)
	assert.Len(t, warning, 1)
}

func TestManager_Summary(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.SetBreakerState("llm", 2)

	m := NewManager(reg, DefaultRules())
	require.NoError(t, m.EvaluateOnce())

	summary := m.Summary()
	assert.Equal(t, 1, summary[SeverityCritical])
}

func TestManager_Test_ForceFiresSyntheticAlert(t *testing.T) {
	reg := metrics.NewRegistry()
	m := NewManager(reg, DefaultRules())

	alert := m.Test("custom_rule", SeverityWarning)
	assert.Equal(t, "custom_rule", alert.RuleName)
	assert.Contains(t, m.List(), alert)
}

func TestManager_RunAndStop(t *testing.T) {
	reg := metrics.NewRegistry()
	m := NewManager(reg, DefaultRules())
	m.Run(5 * time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	m.Stop()
	m.Stop() // idempotent
}
