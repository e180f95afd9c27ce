package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/middleware"
	"github.com/terminal-bench/triagedesk/internal/services/triage"
)

const (
	errInvalidPatient      = "Invalid patient data"
	errNotFoundInQueue     = "Patient not found in queue"
	errNotFoundInTreatment = "Patient not found in treatment"
)

// PatientHandler handles patient intake, treatment and discharge requests
type PatientHandler struct {
	triage *triage.Service
	logger *zap.Logger
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(triageService *triage.Service, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{
		triage: triageService,
		logger: logger,
	}
}

// IntakeRequest represents a patient admission
type IntakeRequest struct {
	Name        string `json:"name"`
	TriageLevel int    `json:"triageLevel"`
}

// Intake admits a patient
func (h *PatientHandler) Intake(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidPatient})
		return
	}

	patient, err := h.triage.Intake(req.Name, req.TriageLevel)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, patient)
}

// List returns the waiting queue in triage order
func (h *PatientHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queue": h.triage.Queue()})
}

// Treat moves a waiting patient into treatment
func (h *PatientHandler) Treat(c *gin.Context) {
	patient, err := h.triage.Treat(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// Discharge releases a patient from treatment
func (h *PatientHandler) Discharge(c *gin.Context) {
	patient, err := h.triage.Discharge(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// Staffing reports current occupancy against staff capacity
func (h *PatientHandler) Staffing(c *gin.Context) {
	c.JSON(http.StatusOK, h.triage.Staffing())
}

func (h *PatientHandler) respondError(c *gin.Context, err error) {
	var (
		validationErr *triage.ValidationError
		notFoundErr   *triage.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidPatient})
	case errors.As(err, &notFoundErr):
		msg := errNotFoundInQueue
		if notFoundErr.Location == triage.LocationTreatment {
			msg = errNotFoundInTreatment
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	default:
		h.logger.Error("Unexpected triage error",
			zap.String("correlation_id", middleware.GetCorrelationID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
