package models

import (
	"time"
)

// EventKind names a broadcast event
type EventKind string

const (
	EventCriticalAlert    EventKind = "critical-alert"
	EventWaitTimeEstimate EventKind = "wait-time-estimate"
	EventStaffOverload    EventKind = "staff-overload"
)

// Event is a single message pushed to observers
type Event struct {
	Kind      EventKind   `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WaitTimeEstimate is the payload of a wait-time-estimate event
type WaitTimeEstimate struct {
	PatientID string `json:"patientId"`
	WaitTime  int    `json:"waitTime"`
}

// StaffOverload is the payload of a staff-overload event
type StaffOverload struct {
	Message       string  `json:"message"`
	Waiting       int     `json:"waiting"`
	InTreatment   int     `json:"inTreatment"`
	TotalPatients int     `json:"totalPatients"`
	StaffCount    int     `json:"staffCount"`
	Ratio         float64 `json:"ratio"`
}

// NewEvent stamps an event with the current time
func NewEvent(kind EventKind, data interface{}) Event {
	return Event{
		Kind:      kind,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
