package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/queue"
	"github.com/krishibandhu/krishibandhu-backend/internal/service"
)

// IrrigationStore is the irrigation table group as seen by the
// handlers. *repository.IrrigationRepo satisfies it; tests substitute
// an in-memory implementation.
type IrrigationStore interface {
	Create(ctx context.Context, e *model.IrrigationEvent) (uint64, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.IrrigationEvent, error)
	CreateSchedule(ctx context.Context, s *model.IrrigationSchedule) (uint64, error)
	ListSchedules(ctx context.Context, userID uint64) ([]model.IrrigationSchedule, error)
	AddUsage(ctx context.Context, userID uint64, date string, liters float64) error
	ListUsage(ctx context.Context, userID uint64, days int) ([]model.WaterUsage, error)
}

// IrrigationHandler estimates water requirements, keeps watering
// schedules and logs manual watering into the daily usage aggregate.
type IrrigationHandler struct {
	Weather   *service.WeatherClient
	Irrigator *service.Irrigator
	Planner   *service.LLMClient
	Store     IrrigationStore
}

func NewIrrigationHandler(w *service.WeatherClient, ir *service.Irrigator, planner *service.LLMClient, store IrrigationStore) *IrrigationHandler {
	return &IrrigationHandler{Weather: w, Irrigator: ir, Planner: planner, Store: store}
}

type irrigationReq struct {
	CropType         string  `json:"crop_type"`
	SoilType         string  `json:"soil_type"`
	Area             float64 `json:"area"`
	IrrigationMethod string  `json:"irrigation_method"`
	District         string  `json:"district"`
	Village          string  `json:"village"`
	DayAfterSowing   int     `json:"day_after_sowing"`
}

// Predict handles POST /irrigation/predict. Weather for the user's
// location feeds the estimate; a weather failure degrades to the
// rule-based path rather than failing the request.
func (h *IrrigationHandler) Predict(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req irrigationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CropType == "" || req.SoilType == "" || req.Area <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "crop_type/soil_type/area required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	wx := h.weatherFor(ctx, req, u)

	in := service.IrrigationInput{
		District:         firstNonEmpty(req.District, u.District),
		CropType:         req.CropType,
		SoilType:         req.SoilType,
		AreaAcres:        req.Area,
		IrrigationMethod: req.IrrigationMethod,
		DayAfterSowing:   req.DayAfterSowing,
		TempC:            wx.TempC,
		RainMM:           wx.RainMM,
	}
	est := h.Irrigator.Estimate(ctx, in)

	details := fmt.Sprintf("%s on %s, %.1f acres", req.CropType, req.SoilType, req.Area)
	ev := model.IrrigationEvent{
		UserID:      u.ID,
		EventType:   "prediction_saved",
		Details:     details,
		WaterLiters: est.Liters,
	}
	if _, err := h.Store.Create(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save event failed"})
	}

	_ = queue.PublishActivityRecorded(ctx, queue.ActivityRecordedEvent{
		UserID:     u.ID,
		Kind:       "irrigation",
		Title:      "prediction_saved",
		Details:    details,
		Liters:     est.Liters,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"liters_required": est.Liters,
		"units":           "liters",
		"source":          est.Source,
		"note":            est.Note,
		"weather":         wx,
	})
}

// weatherFor fetches current weather, preferring the explicit request
// location over profile fields. Failures yield a zero Weather.
func (h *IrrigationHandler) weatherFor(ctx context.Context, req irrigationReq, u model.User) service.Weather {
	city := firstNonEmpty(req.Village, req.District, u.Location, u.District)
	if city == "" {
		return service.Weather{}
	}
	wx, err := h.Weather.ByCity(ctx, city)
	if err != nil {
		return service.Weather{}
	}
	return wx
}

// Metadata returns the crop and soil types the estimator knows.
func (h *IrrigationHandler) Metadata(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"crops": service.CropTypes(),
		"soils": service.SoilTypes(),
	})
}

// History returns the user's recent irrigation events.
func (h *IrrigationHandler) History(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Store.ListByUser(ctx, u.ID, 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

type logEventReq struct {
	EventType   string  `json:"event_type"`
	Details     string  `json:"details"`
	WaterLiters float64 `json:"water_liters"`
}

// LogEvent handles POST /irrigation/events: a manual entry such as
// "watered the field". An entry with liters also feeds that day's
// water usage aggregate.
func (h *IrrigationHandler) LogEvent(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req logEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.WaterLiters < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "water_liters must not be negative"})
	}
	eventType := firstNonEmpty(strings.TrimSpace(req.EventType), "watered")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev := model.IrrigationEvent{
		UserID:      u.ID,
		EventType:   eventType,
		Details:     req.Details,
		WaterLiters: req.WaterLiters,
	}
	id, err := h.Store.Create(ctx, &ev)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save event failed"})
	}
	if req.WaterLiters > 0 {
		day := time.Now().UTC().Format("2006-01-02")
		if err := h.Store.AddUsage(ctx, u.ID, day, req.WaterLiters); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save usage failed"})
		}
	}

	_ = queue.PublishActivityRecorded(ctx, queue.ActivityRecordedEvent{
		UserID:     u.ID,
		Kind:       "irrigation",
		Title:      eventType,
		Details:    req.Details,
		Liters:     req.WaterLiters,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "id": id})
}

type scheduleReq struct {
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Duration    string  `json:"duration"`
	IsEnabled   *bool   `json:"is_enabled"`
	WaterLiters float64 `json:"water_liters"`
}

// CreateSchedule handles POST /irrigation/schedules.
func (h *IrrigationHandler) CreateSchedule(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date/time required"})
	}
	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.IrrigationSchedule{
		UserID:      u.ID,
		Date:        req.Date,
		Time:        req.Time,
		Duration:    req.Duration,
		Enabled:     enabled,
		WaterLiters: req.WaterLiters,
	}
	id, err := h.Store.CreateSchedule(ctx, &s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save schedule failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "id": id})
}

// Schedules handles GET /irrigation/schedules, calendar order.
func (h *IrrigationHandler) Schedules(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Store.ListSchedules(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": items})
}

const maxUsageDays = 90

// WaterUsage handles GET /irrigation/water-usage?days=. Day-wise
// totals for the last `days` days, default 7.
func (h *IrrigationHandler) WaterUsage(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	days := 7
	if s := c.QueryParam("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
		}
		days = n
	}
	if days > maxUsageDays {
		days = maxUsageDays
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	usage, err := h.Store.ListUsage(ctx, u.ID, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"usage": usage})
}

type generateScheduleReq struct {
	CropType    string  `json:"crop_type"`
	SoilType    string  `json:"soil_type"`
	Area        float64 `json:"area"`
	Liters      float64 `json:"liters_required"`
	Days        int     `json:"days"`
	Preferences string  `json:"preferences"`
	District    string  `json:"district"`
	Village     string  `json:"village"`
}

// GenerateSchedule handles POST /irrigation/generate-schedule: the
// planner model drafts a day-wise watering plan and every returned
// slot is persisted as a schedule row.
func (h *IrrigationHandler) GenerateSchedule(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req generateScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CropType == "" || req.SoilType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "crop_type/soil_type required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	wx := h.weatherFor(ctx, irrigationReq{District: req.District, Village: req.Village}, u)

	plan, err := h.Planner.PlanIrrigation(ctx, service.PlanRequest{
		CropType:    req.CropType,
		SoilType:    req.SoilType,
		AreaAcres:   req.Area,
		Liters:      req.Liters,
		Days:        req.Days,
		Preferences: req.Preferences,
		Weather:     wx,
	})
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "planner unavailable"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "generate schedule failed"})
	}

	created := make([]model.IrrigationSchedule, 0, len(plan.Schedules))
	for _, slot := range plan.Schedules {
		s := model.IrrigationSchedule{
			UserID:      u.ID,
			Date:        slot.Date,
			Time:        slot.Time,
			Duration:    slot.Duration,
			Enabled:     slot.Enabled,
			WaterLiters: slot.WaterLiters,
		}
		id, err := h.Store.CreateSchedule(ctx, &s)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save schedule failed"})
		}
		s.ID = id
		created = append(created, s)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"notes":             plan.Notes,
		"created_schedules": created,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
