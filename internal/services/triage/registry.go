package triage

import (
	"github.com/terminal-bench/triagedesk/internal/models"
)

// Registry tracks patients currently in treatment. Order carries no meaning.
type Registry struct {
	patients map[string]*models.Patient
	order    []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		patients: make(map[string]*models.Patient),
	}
}

// Add places a patient in treatment
func (r *Registry) Add(p *models.Patient) {
	if _, exists := r.patients[p.ID]; exists {
		return
	}
	r.patients[p.ID] = p
	r.order = append(r.order, p.ID)
}

// Remove takes a patient out of treatment
func (r *Registry) Remove(id string) (*models.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, &NotFoundError{ID: id, Location: LocationTreatment}
	}
	delete(r.patients, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, nil
}

// Contains reports whether id is in treatment
func (r *Registry) Contains(id string) bool {
	_, ok := r.patients[id]
	return ok
}

// Len returns the number of patients in treatment
func (r *Registry) Len() int {
	return len(r.patients)
}

// List returns copies of the patients in treatment
func (r *Registry) List() []models.Patient {
	out := make([]models.Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.patients[id])
	}
	return out
}
