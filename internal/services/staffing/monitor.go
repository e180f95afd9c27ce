package staffing

import (
	"fmt"

	"github.com/terminal-bench/triagedesk/internal/models"
)

// DefaultThreshold is the patients-per-staff ratio above which the department is overloaded
const DefaultThreshold = 3.0

// Monitor evaluates the staffing ratio. It keeps no state between calls.
type Monitor struct {
	threshold float64
}

// Assessment is the result of a single evaluation
type Assessment struct {
	Waiting     int     `json:"waiting"`
	InTreatment int     `json:"inTreatment"`
	Total       int     `json:"totalPatients"`
	StaffCount  int     `json:"staffCount"`
	Ratio       float64 `json:"ratio"`
	Overloaded  bool    `json:"overloaded"`
}

// NewMonitor creates a monitor. A non-positive threshold falls back to DefaultThreshold.
func NewMonitor(threshold float64) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{threshold: threshold}
}

// Threshold returns the configured ratio limit
func (m *Monitor) Threshold() float64 {
	return m.threshold
}

// Evaluate computes (queueSize + registrySize) / staffCount.
// The department is overloaded only when the ratio is strictly above the threshold.
func (m *Monitor) Evaluate(queueSize, registrySize, staffCount int) (Assessment, error) {
	if staffCount <= 0 {
		return Assessment{}, fmt.Errorf("staff count must be positive, got %d", staffCount)
	}

	total := queueSize + registrySize
	ratio := float64(total) / float64(staffCount)

	return Assessment{
		Waiting:     queueSize,
		InTreatment: registrySize,
		Total:       total,
		StaffCount:  staffCount,
		Ratio:       ratio,
		Overloaded:  ratio > m.threshold,
	}, nil
}

// Alert builds the staff-overload payload for an assessment
func (a Assessment) Alert() models.StaffOverload {
	return models.StaffOverload{
		Message: fmt.Sprintf("Staff overload: %d patients for %d staff (%d waiting, %d in treatment)",
			a.Total, a.StaffCount, a.Waiting, a.InTreatment),
		Waiting:       a.Waiting,
		InTreatment:   a.InTreatment,
		TotalPatients: a.Total,
		StaffCount:    a.StaffCount,
		Ratio:         a.Ratio,
	}
}
