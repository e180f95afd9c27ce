package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/triagedesk/internal/models"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
	"github.com/terminal-bench/triagedesk/internal/services/staffing"
)

func TestInstrumentPublisher(t *testing.T) {
	m := New()
	var forwarded []models.EventKind
	pub := m.InstrumentPublisher(notification.PublisherFunc(func(evt models.Event) {
		forwarded = append(forwarded, evt.Kind)
	}))

	pub.Publish(models.NewEvent(models.EventWaitTimeEstimate, nil))
	pub.Publish(models.NewEvent(models.EventWaitTimeEstimate, nil))
	pub.Publish(models.NewEvent(models.EventCriticalAlert, nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished(models.EventWaitTimeEstimate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished(models.EventCriticalAlert)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EventsPublished(models.EventStaffOverload)))
	assert.Len(t, forwarded, 3)
}

func TestRegisterStaffingAndHub(t *testing.T) {
	m := New()
	m.RegisterStaffing(func() staffing.Assessment {
		return staffing.Assessment{Waiting: 7, InTreatment: 2, Ratio: 1.8}
	})
	hub := notification.NewHub(1, nil)
	_, _, cleanup := hub.Subscribe()
	defer cleanup()
	m.RegisterHub(hub)
	m.RegisterRelay(notification.NewRelay("redis", nil, 1, nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, line := range []string{
		"triage_waiting_patients 7",
		"triage_in_treatment_patients 2",
		"triage_staffing_ratio 1.8",
		"triage_observers_connected 1",
		`triage_relay_dropped_total{relay="redis"} 0`,
	} {
		assert.True(t, strings.Contains(body, line), "missing %q", line)
	}
}
