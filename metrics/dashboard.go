package metrics

import (
	dto "github.com/prometheus/client_model/go"
)

// PhaseSummary is the read-time view of one phase's aggregate behavior.
type PhaseSummary struct {
	Phase          string  `json:"phase"`
	Count          uint64  `json:"count"`
	FallbackCount  float64 `json:"fallback_count"`
	AvgDurationSec float64 `json:"avg_duration_seconds"`
}

// DependencyHealth is the read-time view of one dependency's breaker state.
type DependencyHealth struct {
	Dependency string `json:"dependency"`
	State      string `json:"state"`
}

// PipelineStatus is the JSON shape served by the pipeline status endpoint.
type PipelineStatus struct {
	RequestsTotal map[string]float64  `json:"requests_total"`
	Phases        []PhaseSummary      `json:"phases"`
	Dependencies  []DependencyHealth  `json:"dependencies"`
	ActiveJobs    int                 `json:"active_jobs"`
}

var breakerStateNames = map[float64]string{0: "closed", 1: "half_open", 2: "open"}

// Snapshot walks the private registry's current metric families and
// assembles a PipelineStatus, computed fresh on every call rather than
// cached, since the registry itself is the source of truth.
func (r *Registry) Snapshot() (PipelineStatus, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return PipelineStatus{}, err
	}

	status := PipelineStatus{
		RequestsTotal: map[string]float64{},
	}

	phaseCounts := map[string]uint64{}
	phaseFallbacks := map[string]float64{}
	phaseDurationSum := map[string]float64{}

	for _, f := range families {
		switch f.GetName() {
		case "pipeline_requests_total":
			for _, m := range f.GetMetric() {
				status.RequestsTotal[labelValue(m, "outcome")] = m.GetCounter().GetValue()
			}
		case "pipeline_phase_fallback_total":
			for _, m := range f.GetMetric() {
				phaseFallbacks[labelValue(m, "phase")] = m.GetCounter().GetValue()
			}
		case "pipeline_phase_duration_seconds":
			for _, m := range f.GetMetric() {
				h := m.GetHistogram()
				phase := labelValue(m, "phase")
				phaseCounts[phase] = h.GetSampleCount()
				phaseDurationSum[phase] = h.GetSampleSum()
			}
		case "pipeline_circuit_breaker_state":
			for _, m := range f.GetMetric() {
				status.Dependencies = append(status.Dependencies, DependencyHealth{
					Dependency: labelValue(m, "dependency"),
					State:      breakerStateNames[m.GetGauge().GetValue()],
				})
			}
		case "pipeline_active_jobs":
			for _, m := range f.GetMetric() {
				status.ActiveJobs = int(m.GetGauge().GetValue())
			}
		}
	}

	for phase, count := range phaseCounts {
		avg := 0.0
		if count > 0 {
			avg = phaseDurationSum[phase] / float64(count)
		}
		status.Phases = append(status.Phases, PhaseSummary{
			Phase:          phase,
			Count:          count,
			FallbackCount:  phaseFallbacks[phase],
			AvgDurationSec: avg,
		})
	}

	return status, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
