package triage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/config"
	"github.com/terminal-bench/triagedesk/internal/models"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
	"github.com/terminal-bench/triagedesk/internal/services/staffing"
)

// Service owns the waiting queue and the treatment registry.
// Every mutation runs mutate -> recompute -> publish under one write lock.
type Service struct {
	mu       sync.RWMutex
	queue    *Queue
	registry *Registry
	monitor  *staffing.Monitor
	bus      notification.Publisher
	logger   *zap.Logger

	staffCount        int
	minutesPerPatient int

	now         func() time.Time
	newID       func() string
	lastArrival time.Time
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces the wall clock used for arrival times
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the patient id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a triage service
func NewService(cfg *config.Config, bus notification.Publisher, logger *zap.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.StaffCount <= 0 {
		return nil, fmt.Errorf("staff count must be positive, got %d", cfg.StaffCount)
	}
	if bus == nil {
		bus = notification.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		queue:             NewQueue(),
		registry:          NewRegistry(),
		monitor:           staffing.NewMonitor(cfg.OverloadRatio),
		bus:               bus,
		logger:            logger,
		staffCount:        cfg.StaffCount,
		minutesPerPatient: cfg.MinutesPerPatient,
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Intake admits a patient into the waiting queue
func (s *Service) Intake(name string, triageLevel int) (models.Patient, error) {
	if strings.TrimSpace(name) == "" {
		return models.Patient{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !models.ValidTriageLevel(triageLevel) {
		return models.Patient{}, &ValidationError{
			Field:  "triageLevel",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", models.TriageMinLevel, models.TriageMaxLevel, triageLevel),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &models.Patient{
		ID:          s.nextID(),
		Name:        name,
		TriageLevel: triageLevel,
		ArrivalTime: s.nextArrival(),
		Status:      models.StatusWaiting,
	}
	s.queue.Enqueue(p)

	if p.IsCritical() {
		s.bus.Publish(models.NewEvent(models.EventCriticalAlert, *p))
	}
	s.publishWaitTimes()
	s.checkStaffing()

	s.logger.Info("Patient admitted",
		zap.String("patient_id", p.ID),
		zap.Int("triage_level", p.TriageLevel),
		zap.Int("queue_length", s.queue.Len()),
	)

	return *p, nil
}

// Treat moves a waiting patient into treatment
func (s *Service) Treat(id string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.queue.Remove(id)
	if err != nil {
		return models.Patient{}, err
	}
	p.Status = models.StatusBeingTreated
	s.registry.Add(p)

	s.publishWaitTimes()
	s.checkStaffing()

	s.logger.Info("Patient moved to treatment",
		zap.String("patient_id", p.ID),
		zap.Int("queue_length", s.queue.Len()),
		zap.Int("in_treatment", s.registry.Len()),
	)

	return *p, nil
}

// Discharge releases a patient from treatment. The record is not kept.
func (s *Service) Discharge(id string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.registry.Remove(id)
	if err != nil {
		return models.Patient{}, err
	}
	p.Status = models.StatusDischarged

	s.checkStaffing()

	s.logger.Info("Patient discharged",
		zap.String("patient_id", p.ID),
		zap.Int("in_treatment", s.registry.Len()),
	)

	return *p, nil
}

// Queue returns the waiting patients in triage order
func (s *Service) Queue() []models.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queue.OrderedView()
}

// InTreatment returns the patients currently being treated
func (s *Service) InTreatment() []models.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.registry.List()
}

// Staffing returns the current staffing assessment without publishing anything
func (s *Service) Staffing() staffing.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, _ := s.monitor.Evaluate(s.queue.Len(), s.registry.Len(), s.staffCount)
	return a
}

// Must be called with s.mu held.
func (s *Service) publishWaitTimes() {
	for _, estimate := range s.queue.WaitTimes(s.minutesPerPatient) {
		s.bus.Publish(models.NewEvent(models.EventWaitTimeEstimate, estimate))
	}
}

// Must be called with s.mu held.
func (s *Service) checkStaffing() {
	a, err := s.monitor.Evaluate(s.queue.Len(), s.registry.Len(), s.staffCount)
	if err != nil {
		s.logger.Error("Staffing evaluation failed", zap.Error(err))
		return
	}
	if !a.Overloaded {
		return
	}

	s.logger.Warn("Staff overload",
		zap.Int("total_patients", a.Total),
		zap.Int("staff_count", a.StaffCount),
		zap.Float64("ratio", a.Ratio),
	)
	s.bus.Publish(models.NewEvent(models.EventStaffOverload, a.Alert()))
}

// nextArrival returns a timestamp strictly after every earlier arrival
func (s *Service) nextArrival() time.Time {
	t := s.now()
	if !t.After(s.lastArrival) {
		t = s.lastArrival.Add(time.Nanosecond)
	}
	s.lastArrival = t
	return t
}

func (s *Service) nextID() string {
	for {
		id := s.newID()
		if !s.queue.Contains(id) && !s.registry.Contains(id) {
			return id
		}
	}
}
