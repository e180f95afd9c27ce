package models

import (
	"time"
)

// Status is the lifecycle state of a patient
type Status string

const (
	StatusWaiting      Status = "waiting"
	StatusBeingTreated Status = "being_treated"
	StatusDischarged   Status = "discharged"
)

// Triage levels run from 1 (most severe) to 5 (least severe)
const (
	TriageCritical = 1
	TriageMinLevel = 1
	TriageMaxLevel = 5
)

// Patient represents a patient moving through the department
type Patient struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TriageLevel int       `json:"triageLevel"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Status      Status    `json:"status"`
}

// ValidTriageLevel reports whether level is inside the accepted range
func ValidTriageLevel(level int) bool {
	return level >= TriageMinLevel && level <= TriageMaxLevel
}

// IsCritical reports whether the patient was admitted at level 1
func (p *Patient) IsCritical() bool {
	return p.TriageLevel == TriageCritical
}

// Before reports whether p sorts ahead of other in the waiting queue.
func (p *Patient) Before(other *Patient) bool {
	if p.TriageLevel != other.TriageLevel {
		return p.TriageLevel < other.TriageLevel
	}
	return p.ArrivalTime.Before(other.ArrivalTime)
}

// CanTransition reports whether moving from s to next is a legal forward step
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusBeingTreated
	case StatusBeingTreated:
		return next == StatusDischarged
	default:
		return false
	}
}
