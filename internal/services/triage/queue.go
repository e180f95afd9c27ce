package triage

import (
	"sort"

	"github.com/terminal-bench/triagedesk/internal/models"
)

// Queue holds waiting patients ordered by triage level, then arrival.
// It is not safe for concurrent use; Service serializes access.
type Queue struct {
	patients []*models.Patient
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue inserts p after every patient that does not sort strictly after it,
// so patients with equal keys keep their insertion order.
func (q *Queue) Enqueue(p *models.Patient) {
	i := sort.Search(len(q.patients), func(i int) bool {
		return p.Before(q.patients[i])
	})
	q.patients = append(q.patients, nil)
	copy(q.patients[i+1:], q.patients[i:])
	q.patients[i] = p
}

// Remove takes the patient out of the queue
func (q *Queue) Remove(id string) (*models.Patient, error) {
	i, ok := q.PositionOf(id)
	if !ok {
		return nil, &NotFoundError{ID: id, Location: LocationQueue}
	}
	p := q.patients[i]
	copy(q.patients[i:], q.patients[i+1:])
	q.patients[len(q.patients)-1] = nil
	q.patients = q.patients[:len(q.patients)-1]
	return p, nil
}

// PositionOf returns the zero-based index of id in the ordered view
func (q *Queue) PositionOf(id string) (int, bool) {
	for i, p := range q.patients {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Contains reports whether id is waiting
func (q *Queue) Contains(id string) bool {
	_, ok := q.PositionOf(id)
	return ok
}

// Len returns the number of waiting patients
func (q *Queue) Len() int {
	return len(q.patients)
}

// OrderedView returns copies of the waiting patients in queue order
func (q *Queue) OrderedView() []models.Patient {
	out := make([]models.Patient, len(q.patients))
	for i, p := range q.patients {
		out[i] = *p
	}
	return out
}

// WaitTimes derives an estimate for every waiting patient from its position
func (q *Queue) WaitTimes(minutesPerPatient int) []models.WaitTimeEstimate {
	out := make([]models.WaitTimeEstimate, len(q.patients))
	for i, p := range q.patients {
		out[i] = models.WaitTimeEstimate{
			PatientID: p.ID,
			WaitTime:  i * minutesPerPatient,
		}
	}
	return out
}
