package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/config"
	"github.com/terminal-bench/triagedesk/internal/metrics"
	"github.com/terminal-bench/triagedesk/internal/middleware"
	"github.com/terminal-bench/triagedesk/internal/models"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
	"github.com/terminal-bench/triagedesk/internal/services/triage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	hub     *notification.Hub
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	cfg := &config.Config{
		StaffCount:        5,
		MinutesPerPatient: 5,
		OverloadRatio:     3,
		AllowedOrigins:    []string{"*"},
	}
	logger := zap.NewNop()
	hub := notification.NewHub(512, logger)
	m := metrics.New()

	svc, err := triage.NewService(cfg, m.InstrumentPublisher(hub), logger)
	require.NoError(t, err)
	m.RegisterStaffing(svc.Staffing)
	m.RegisterHub(hub)

	return &testEnv{
		router: NewRouter(Dependencies{
			Config:  cfg,
			Triage:  svc,
			Hub:     hub,
			Metrics: m,
			Limiter: limiter,
			Logger:  logger,
		}),
		hub:     hub,
		metrics: m,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admit(t *testing.T, name string, level int) models.Patient {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"name": name, "triageLevel": level})
	w := e.do(t, http.MethodPost, "/patients", string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p models.Patient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func (e *testEnv) queue(t *testing.T) []models.Patient {
	t.Helper()
	w := e.do(t, http.MethodGet, "/patients", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Queue []models.Patient `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Queue
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

func TestIntakeEndpoint(t *testing.T) {
	t.Run("should create a waiting patient", func(t *testing.T) {
		env := newTestEnv(t, nil)

		p := env.admit(t, "Ada", 2)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Ada", p.Name)
		assert.Equal(t, 2, p.TriageLevel)
		assert.Equal(t, models.StatusWaiting, p.Status)
	})

	invalid := map[string]string{
		"missing name":     `{"triageLevel": 2}`,
		"empty name":       `{"name": "", "triageLevel": 2}`,
		"missing level":    `{"name": "Ada"}`,
		"level too high":   `{"name": "Ada", "triageLevel": 6}`,
		"level too low":    `{"name": "Ada", "triageLevel": 0}`,
		"fractional level": `{"name": "Ada", "triageLevel": 2.5}`,
		"string level":     `{"name": "Ada", "triageLevel": "2"}`,
		"non-string name":  `{"name": 7, "triageLevel": 2}`,
		"malformed json":   `{"name": "Ada",`,
		"empty request":    ``,
	}
	for name, body := range invalid {
		t.Run("should reject "+name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			w := env.do(t, http.MethodPost, "/patients", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid patient data", errorBody(t, w))
			assert.Empty(t, env.queue(t))
		})
	}
}

func TestQueueEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	a := env.admit(t, "A", 3)
	b := env.admit(t, "B", 1)
	c := env.admit(t, "C", 3)

	queue := env.queue(t)
	require.Len(t, queue, 3)
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, []string{queue[0].ID, queue[1].ID, queue[2].ID})
}

func TestTreatAndDischargeEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	a := env.admit(t, "A", 2)
	b := env.admit(t, "B", 2)

	w := env.do(t, http.MethodPost, "/patients/"+a.ID+"/discharge", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Patient not found in treatment", errorBody(t, w))

	w = env.do(t, http.MethodPost, "/patients/"+a.ID+"/treat", "")
	require.Equal(t, http.StatusOK, w.Code)
	var treated models.Patient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &treated))
	assert.Equal(t, models.StatusBeingTreated, treated.Status)

	queue := env.queue(t)
	require.Len(t, queue, 1)
	assert.Equal(t, b.ID, queue[0].ID)

	w = env.do(t, http.MethodPost, "/patients/"+a.ID+"/treat", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Patient not found in queue", errorBody(t, w))

	w = env.do(t, http.MethodPost, "/patients/"+a.ID+"/discharge", "")
	require.Equal(t, http.StatusOK, w.Code)
	var discharged models.Patient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &discharged))
	assert.Equal(t, models.StatusDischarged, discharged.Status)

	w = env.do(t, http.MethodPost, "/patients/"+a.ID+"/discharge", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	for _, p := range env.queue(t) {
		assert.NotEqual(t, a.ID, p.ID)
	}
}

func TestTreatUnknownEmitsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.admit(t, "A", 3)

	_, events, cleanup := env.hub.Subscribe()
	defer cleanup()

	w := env.do(t, http.MethodPost, "/patients/missing/treat", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, events, 0)
	assert.Len(t, env.queue(t), 1)
}

func TestStaffingEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 16; i++ {
		env.admit(t, "P", 4)
	}

	w := env.do(t, http.MethodGet, "/staffing", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Waiting    int     `json:"waiting"`
		Total      int     `json:"totalPatients"`
		StaffCount int     `json:"staffCount"`
		Ratio      float64 `json:"ratio"`
		Overloaded bool    `json:"overloaded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 16, resp.Waiting)
	assert.Equal(t, 16, resp.Total)
	assert.Equal(t, 5, resp.StaffCount)
	assert.InDelta(t, 3.2, resp.Ratio, 1e-9)
	assert.True(t, resp.Overloaded)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	env.admit(t, "A", 1)

	w := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "triage_waiting_patients 1")
	assert.Contains(t, body, `triage_events_published_total{event="critical-alert"} 1`)
}

func TestMutatingRoutesAreRateLimited(t *testing.T) {
	env := newTestEnv(t, middleware.NewRateLimiter(1))

	env.admit(t, "A", 3)
	env.admit(t, "B", 3)

	w := env.do(t, http.MethodPost, "/patients", `{"name":"C","triageLevel":3}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = env.do(t, http.MethodGet, "/patients", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestObserverWebsocket(t *testing.T) {
	env := newTestEnv(t, nil)
	server := httptest.NewServer(env.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	a := env.admit(t, "A", 3)
	b := env.admit(t, "B", 1)

	type frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	read := func() frame {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		return f
	}

	// A's intake
	f := read()
	assert.Equal(t, "wait-time-estimate", f.Event)

	// B's intake: critical alert, then the full recomputed estimates
	f = read()
	require.Equal(t, "critical-alert", f.Event)
	var alerted models.Patient
	require.NoError(t, json.Unmarshal(f.Data, &alerted))
	assert.Equal(t, b.ID, alerted.ID)

	var estimates []models.WaitTimeEstimate
	for i := 0; i < 2; i++ {
		f = read()
		require.Equal(t, "wait-time-estimate", f.Event)
		var est models.WaitTimeEstimate
		require.NoError(t, json.Unmarshal(f.Data, &est))
		estimates = append(estimates, est)
	}
	assert.Equal(t, []models.WaitTimeEstimate{
		{PatientID: b.ID, WaitTime: 0},
		{PatientID: a.ID, WaitTime: 5},
	}, estimates)

	conn.Close()
	require.Eventually(t, func() bool { return env.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
