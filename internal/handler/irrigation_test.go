package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishibandhu/krishibandhu-backend/internal/handler"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/service"
)

// fakeIrrigationStore records writes for assertions. Tests run with a
// single user, so usage is keyed by date alone.
type fakeIrrigationStore struct {
	events        []model.IrrigationEvent
	schedules     []model.IrrigationSchedule
	usage         map[string]float64
	lastUsageDays int
	nextID        uint64
}

func newFakeIrrigationStore() *fakeIrrigationStore {
	return &fakeIrrigationStore{usage: map[string]float64{}}
}

func (f *fakeIrrigationStore) Create(_ context.Context, e *model.IrrigationEvent) (uint64, error) {
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now().UTC()
	f.events = append(f.events, *e)
	return e.ID, nil
}

func (f *fakeIrrigationStore) ListByUser(_ context.Context, _ uint64, limit int) ([]model.IrrigationEvent, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeIrrigationStore) CreateSchedule(_ context.Context, s *model.IrrigationSchedule) (uint64, error) {
	f.nextID++
	s.ID = f.nextID
	f.schedules = append(f.schedules, *s)
	return s.ID, nil
}

func (f *fakeIrrigationStore) ListSchedules(_ context.Context, _ uint64) ([]model.IrrigationSchedule, error) {
	return f.schedules, nil
}

func (f *fakeIrrigationStore) AddUsage(_ context.Context, _ uint64, date string, liters float64) error {
	f.usage[date] += liters
	return nil
}

func (f *fakeIrrigationStore) ListUsage(_ context.Context, _ uint64, days int) ([]model.WaterUsage, error) {
	f.lastUsageDays = days
	out := make([]model.WaterUsage, 0, len(f.usage))
	for d, l := range f.usage {
		out = append(out, model.WaterUsage{UserID: 1, Date: d, Liters: l})
	}
	return out, nil
}

// irrigationCtx builds an echo context with the user already resolved,
// as the bearer middleware would leave it.
func irrigationCtx(method, target string, body map[string]any) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", model.User{ID: 1, Phone: "9000000001", Role: model.RoleFarmer})
	return c, rec
}

func TestLogEventAccumulatesDailyUsage(t *testing.T) {
	st := newFakeIrrigationStore()
	h := handler.NewIrrigationHandler(nil, nil, nil, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/events", map[string]any{
		"details": "evening watering", "water_liters": 1200.0,
	})
	require.NoError(t, h.LogEvent(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The event type defaults to "watered" and today's usage row
	// received the liters.
	require.Len(t, st.events, 1)
	assert.Equal(t, "watered", st.events[0].EventType)
	today := time.Now().UTC().Format("2006-01-02")
	assert.InDelta(t, 1200, st.usage[today], 0.001)

	// A second entry on the same day accumulates.
	c, rec = irrigationCtx(http.MethodPost, "/irrigation/events", map[string]any{
		"event_type": "watered", "water_liters": 300.0,
	})
	require.NoError(t, h.LogEvent(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1500, st.usage[today], 0.001)
}

func TestLogEventWithoutLitersSkipsUsage(t *testing.T) {
	st := newFakeIrrigationStore()
	h := handler.NewIrrigationHandler(nil, nil, nil, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/events", map[string]any{
		"event_type": "pump_serviced", "details": "replaced seal",
	})
	require.NoError(t, h.LogEvent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, st.events, 1)
	assert.Equal(t, "pump_serviced", st.events[0].EventType)
	assert.Empty(t, st.usage)
}

func TestLogEventRejectsNegativeLiters(t *testing.T) {
	st := newFakeIrrigationStore()
	h := handler.NewIrrigationHandler(nil, nil, nil, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/events", map[string]any{
		"water_liters": -5.0,
	})
	require.NoError(t, h.LogEvent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, st.events)
}

func TestCreateSchedule(t *testing.T) {
	st := newFakeIrrigationStore()
	h := handler.NewIrrigationHandler(nil, nil, nil, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/schedules", map[string]any{
		"date": "2026-09-02", "time": "06:00 AM", "duration": "30 min", "water_liters": 4000.0,
	})
	require.NoError(t, h.CreateSchedule(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, st.schedules, 1)
	s := st.schedules[0]
	assert.Equal(t, "2026-09-02", s.Date)
	assert.Equal(t, "06:00 AM", s.Time)
	assert.True(t, s.Enabled, "omitted is_enabled defaults to true")

	// Explicitly disabled slot.
	c, rec = irrigationCtx(http.MethodPost, "/irrigation/schedules", map[string]any{
		"date": "2026-09-03", "time": "06:00 AM", "is_enabled": false,
	})
	require.NoError(t, h.CreateSchedule(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, st.schedules[1].Enabled)
}

func TestCreateScheduleRequiresDateAndTime(t *testing.T) {
	st := newFakeIrrigationStore()
	h := handler.NewIrrigationHandler(nil, nil, nil, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/schedules", map[string]any{
		"time": "06:00 AM",
	})
	require.NoError(t, h.CreateSchedule(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, st.schedules)
}

func TestWaterUsageDays(t *testing.T) {
	st := newFakeIrrigationStore()
	st.usage["2026-08-31"] = 900
	h := handler.NewIrrigationHandler(nil, nil, nil, st)

	// Default window is seven days.
	c, rec := irrigationCtx(http.MethodGet, "/irrigation/water-usage", nil)
	require.NoError(t, h.WaterUsage(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, st.lastUsageDays)

	// Explicit window, capped at ninety.
	c, rec = irrigationCtx(http.MethodGet, "/irrigation/water-usage?days=365", nil)
	require.NoError(t, h.WaterUsage(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, st.lastUsageDays)

	// Garbage is rejected.
	c, rec = irrigationCtx(http.MethodGet, "/irrigation/water-usage?days=zero", nil)
	require.NoError(t, h.WaterUsage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSchedulePersistsPlannerSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		content := "```json\n{\"schedules\":[" +
			"{\"date\":\"2026-09-02\",\"time\":\"06:00 AM\",\"duration\":\"30 min\",\"water_liters\":4000}," +
			"{\"date\":\"2026-09-04\",\"time\":\"06:30 AM\",\"duration\":\"30 min\",\"water_liters\":4000,\"is_enabled\":false}" +
			"],\"notes\":\"skip rainy days\"}\n```"
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	st := newFakeIrrigationStore()
	llm := &service.LLMClient{APIKey: "test-key", BaseURL: srv.URL, Model: "m", HTTP: srv.Client()}
	h := handler.NewIrrigationHandler(nil, nil, llm, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/generate-schedule", map[string]any{
		"crop_type": "rice", "soil_type": "loam", "area": 2.0, "liters_required": 8000.0,
	})
	require.NoError(t, h.GenerateSchedule(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, st.schedules, 2)
	assert.Equal(t, "2026-09-02", st.schedules[0].Date)
	assert.True(t, st.schedules[0].Enabled)
	assert.False(t, st.schedules[1].Enabled)
	assert.Contains(t, rec.Body.String(), "skip rainy days")
}

func TestGenerateScheduleWithoutPlanner(t *testing.T) {
	st := newFakeIrrigationStore()
	llm := &service.LLMClient{HTTP: http.DefaultClient}
	h := handler.NewIrrigationHandler(nil, nil, llm, st)

	c, rec := irrigationCtx(http.MethodPost, "/irrigation/generate-schedule", map[string]any{
		"crop_type": "rice", "soil_type": "loam",
	})
	require.NoError(t, h.GenerateSchedule(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, st.schedules)
}
