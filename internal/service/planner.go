package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// plannerSystemPrompt forces a machine-readable reply. The model is
// told to answer with JSON only; parsePlan still tolerates a fenced
// code block around it.
const plannerSystemPrompt = "You are an irrigation planner for Indian farms. " +
	"Given crop, soil, area, an estimated water requirement per irrigation and current weather, " +
	"produce a watering schedule for the coming days. " +
	"Reply with JSON only, no prose, in this shape: " +
	`{"schedules":[{"date":"YYYY-MM-DD","time":"06:00 AM","duration":"30 min","water_liters":0,"is_enabled":true}],"notes":""}`

// PlanRequest describes the farm the schedule is generated for.
type PlanRequest struct {
	CropType    string
	SoilType    string
	AreaAcres   float64
	Liters      float64 // estimated liters per irrigation, 0 when unknown
	Days        int     // planning horizon, defaults to 7
	Preferences string  // free-form farmer preferences, e.g. "mornings only"
	Weather     Weather
}

// PlannedSlot is one schedule entry produced by the planner.
type PlannedSlot struct {
	Date        string
	Time        string
	Duration    string
	WaterLiters float64
	Enabled     bool
}

// IrrigationPlan is the parsed planner output.
type IrrigationPlan struct {
	Schedules []PlannedSlot
	Notes     string
}

// PlanIrrigation asks the model for a day-wise watering schedule. The
// caller persists the returned slots.
func (l *LLMClient) PlanIrrigation(ctx context.Context, req PlanRequest) (IrrigationPlan, error) {
	days := req.Days
	if days <= 0 {
		days = 7
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s. Plan the next %d days.\n", time.Now().UTC().Format("2006-01-02"), days)
	fmt.Fprintf(&b, "Crop: %s. Soil: %s. Area: %.1f acres.\n", req.CropType, req.SoilType, req.AreaAcres)
	if req.Liters > 0 {
		fmt.Fprintf(&b, "Estimated water per irrigation: %.0f liters.\n", req.Liters)
	}
	if req.Weather != (Weather{}) {
		fmt.Fprintf(&b, "Current weather: %.1f C, humidity %.0f%%, rain %.1f mm, %s.\n",
			req.Weather.TempC, req.Weather.Humidity, req.Weather.RainMM, req.Weather.Description)
	}
	if req.Preferences != "" {
		fmt.Fprintf(&b, "Farmer preferences: %s\n", req.Preferences)
	}

	raw, err := l.complete(ctx, []chatMessage{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		return IrrigationPlan{}, err
	}
	return parsePlan(raw)
}

// parsePlan extracts the JSON object from the model reply. Models
// wrap JSON in markdown fences often enough that this trims to the
// outermost braces instead of trusting the raw string.
func parsePlan(raw string) (IrrigationPlan, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return IrrigationPlan{}, fmt.Errorf("planner reply has no JSON object: %q", preview200(raw))
	}

	var wire struct {
		Schedules []struct {
			Date        string  `json:"date"`
			Time        string  `json:"time"`
			Duration    string  `json:"duration"`
			WaterLiters float64 `json:"water_liters"`
			IsEnabled   *bool   `json:"is_enabled"`
		} `json:"schedules"`
		Notes string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return IrrigationPlan{}, fmt.Errorf("decode planner reply: %w", err)
	}

	plan := IrrigationPlan{Notes: wire.Notes}
	for _, s := range wire.Schedules {
		if s.Date == "" || s.Time == "" {
			continue
		}
		enabled := true
		if s.IsEnabled != nil {
			enabled = *s.IsEnabled
		}
		plan.Schedules = append(plan.Schedules, PlannedSlot{
			Date:        s.Date,
			Time:        s.Time,
			Duration:    s.Duration,
			WaterLiters: s.WaterLiters,
			Enabled:     enabled,
		})
	}
	if len(plan.Schedules) == 0 {
		return IrrigationPlan{}, errors.New("planner reply contained no usable schedules")
	}
	return plan, nil
}

func preview200(s string) string {
	r := []rune(s)
	if len(r) > 200 {
		r = r[:200]
	}
	return string(r)
}
