package handler

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
)

// ProfileHandler serves the user's own profile and the aggregated
// recent-activity feed.
type ProfileHandler struct {
	Users       *repository.UserRepo
	Irrigation  *repository.IrrigationRepo
	Assistant   *repository.AssistantRepo
	Predictions *repository.PredictionRepo
}

func NewProfileHandler(u *repository.UserRepo, i *repository.IrrigationRepo, a *repository.AssistantRepo, p *repository.PredictionRepo) *ProfileHandler {
	return &ProfileHandler{Users: u, Irrigation: i, Assistant: a, Predictions: p}
}

const activityFeedLimit = 10

type activityItem struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Details   string         `json:"details"`
	Meta      map[string]any `json:"meta,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Me returns the authenticated user's profile.
func (h *ProfileHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       u.ID,
		"name":     u.Name,
		"phone":    u.Phone,
		"email":    u.Email,
		"state":    u.State,
		"district": u.District,
		"location": u.Location,
		"language": u.Language,
		"role":     u.Role,
	})
}

type updateProfileReq struct {
	Name string `json:"name"`
}

// Update changes the display name.
func (h *ProfileHandler) Update(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateName(ctx, u.ID, req.Name); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "profile updated", "name": req.Name})
}

// RecentActivities merges irrigation events, assistant exchanges and
// disease predictions into one feed, newest first, capped at ten
// items.
func (h *ProfileHandler) RecentActivities(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var items []activityItem

	events, err := h.Irrigation.ListByUser(ctx, u.ID, activityFeedLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, e := range events {
		items = append(items, activityItem{
			ID:        fmt.Sprintf("irrigation-%d", e.ID),
			Type:      "irrigation",
			Title:     e.EventType,
			Details:   e.Details,
			Meta:      map[string]any{"water_liters": e.WaterLiters},
			Timestamp: e.CreatedAt,
		})
	}

	queries, err := h.Assistant.ListByUser(ctx, u.ID, activityFeedLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, q := range queries {
		items = append(items, activityItem{
			ID:        fmt.Sprintf("assistant-%d", q.ID),
			Type:      "assistant",
			Title:     q.QueryType,
			Details:   q.UserInput,
			Meta:      map[string]any{"response_preview": preview(q.Response, 200)},
			Timestamp: q.CreatedAt,
		})
	}

	preds, err := h.Predictions.ListByUser(ctx, u.ID, activityFeedLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, p := range preds {
		items = append(items, activityItem{
			ID:        fmt.Sprintf("disease-%d", p.ID),
			Type:      "disease",
			Title:     p.PredictedClass,
			Details:   p.Details,
			Meta:      map[string]any{"crop_type": p.CropType},
			Timestamp: p.CreatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if len(items) > activityFeedLimit {
		items = items[:activityFeedLimit]
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": items})
}

// preview cuts s to at most n runes. Byte slicing would split a
// multibyte character; assistant responses are mostly Indic scripts.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
