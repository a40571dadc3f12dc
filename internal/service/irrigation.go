package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// IrrigationInput collects the features of the water-requirement
// estimate: farm parameters from the request plus current weather.
type IrrigationInput struct {
	District         string  `json:"district"`
	CropType         string  `json:"crop_type"`
	SoilType         string  `json:"soil_type"`
	AreaAcres        float64 `json:"area"`
	IrrigationMethod string  `json:"irrigation_method"`
	DayAfterSowing   int     `json:"day_after_sowing"`
	TempC            float64 `json:"temperature"`
	RainMM           float64 `json:"rainfall"`
}

// IrrigationEstimate is the estimator's answer. Source is "model"
// when the remote regression service produced it and "rules" when
// the local fallback did.
type IrrigationEstimate struct {
	Liters float64 `json:"liters_required"`
	Source string  `json:"source"`
	Note   string  `json:"note,omitempty"`
}

// Irrigator estimates water requirements. It first asks the remote
// pretrained regression service; if that is unreachable or not
// configured it falls back to a rule-based estimate so the endpoint
// keeps working without the model.
type Irrigator struct {
	BaseURL string
	HTTP    *http.Client
}

func NewIrrigator(baseURL string) *Irrigator {
	return &Irrigator{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Estimate returns the water requirement in liters for the given
// input. Never fails on model errors; the rule-based path always
// produces a value.
func (ir *Irrigator) Estimate(ctx context.Context, in IrrigationInput) IrrigationEstimate {
	if ir.BaseURL != "" {
		if liters, err := ir.fromModel(ctx, in); err == nil {
			return IrrigationEstimate{Liters: round1(liters), Source: "model"}
		}
	}
	return IrrigationEstimate{
		Liters: round1(ruleBasedLiters(in)),
		Source: "rules",
		Note:   "estimated by fallback rule-based predictor",
	}
}

func (ir *Irrigator) fromModel(ctx context.Context, in IrrigationInput) (float64, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ir.BaseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := ir.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("irrigation model status %d", res.StatusCode)
	}
	var out struct {
		Liters float64 `json:"liters_required"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	if out.Liters <= 0 {
		return 0, fmt.Errorf("irrigation model returned %f", out.Liters)
	}
	return out.Liters, nil
}

// Base liters per acre per irrigation and soil multipliers for the
// fallback path. Rough agronomy defaults; the trained model is the
// source of truth when reachable.
var (
	cropBaseLiters = map[string]float64{
		"rice":       6000,
		"wheat":      4000,
		"maize":      4500,
		"vegetables": 3000,
		"orchard":    3500,
	}
	soilMultiplier = map[string]float64{
		"sandy": 1.2,
		"clay":  0.9,
		"loam":  1.0,
		"silt":  1.0,
		"peaty": 1.1,
	}
)

const defaultBaseLiters = 3500

// ruleBasedLiters mirrors the behaviour of the original fallback:
// liters = base(crop) * soil multiplier * area * (1 - rain factor),
// where the rain factor scales recent rainfall into 0..1.
func ruleBasedLiters(in IrrigationInput) float64 {
	base, ok := cropBaseLiters[normalize(in.CropType)]
	if !ok {
		base = defaultBaseLiters
	}
	mult := 1.0
	for key, m := range soilMultiplier {
		if strings.Contains(normalize(in.SoilType), key) {
			mult = m
			break
		}
	}
	area := in.AreaAcres
	if area <= 0 {
		area = 1.0
	}
	// Treat rainfall in mm as a percentage reduction, capped at 100%.
	rainFactor := math.Max(0, math.Min(in.RainMM/100.0, 1.0))
	return base * mult * area * (1.0 - rainFactor)
}

// CropTypes and SoilTypes back the metadata endpoint.
func CropTypes() []string {
	return []string{"Maize", "Orchard", "Rice", "Vegetables", "Wheat"}
}

func SoilTypes() []string {
	return []string{"Alluvial Soil", "Black Soil", "Clay Loam", "Sandy Loam"}
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
