package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBasedLiters(t *testing.T) {
	cases := []struct {
		name string
		in   IrrigationInput
		want float64
	}{
		{
			name: "rice on loam, no rain",
			in:   IrrigationInput{CropType: "Rice", SoilType: "Loam", AreaAcres: 2, RainMM: 0},
			want: 6000 * 1.0 * 2,
		},
		{
			name: "wheat on sandy loam",
			in:   IrrigationInput{CropType: "wheat", SoilType: "Sandy Loam", AreaAcres: 1, RainMM: 0},
			want: 4000 * 1.2,
		},
		{
			name: "vegetables on clay with rain",
			in:   IrrigationInput{CropType: "Vegetables", SoilType: "clay", AreaAcres: 1, RainMM: 25},
			want: 3000 * 0.9 * 0.75,
		},
		{
			name: "unknown crop uses default base",
			in:   IrrigationInput{CropType: "sugarcane", SoilType: "loam", AreaAcres: 1},
			want: defaultBaseLiters,
		},
		{
			name: "heavy rain clamps to zero",
			in:   IrrigationInput{CropType: "rice", SoilType: "loam", AreaAcres: 3, RainMM: 250},
			want: 0,
		},
		{
			name: "non-positive area treated as one acre",
			in:   IrrigationInput{CropType: "maize", SoilType: "loam", AreaAcres: 0},
			want: 4500,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ruleBasedLiters(tc.in), 0.001)
		})
	}
}

func TestEstimatePrefersModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"liters_required": 5120.55}`))
	}))
	defer srv.Close()

	ir := &Irrigator{BaseURL: srv.URL, HTTP: srv.Client()}
	est := ir.Estimate(context.Background(), IrrigationInput{CropType: "rice", SoilType: "loam", AreaAcres: 1})

	assert.Equal(t, "model", est.Source)
	assert.InDelta(t, 5120.6, est.Liters, 0.001)
	assert.Empty(t, est.Note)
}

func TestEstimateFallsBackOnModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ir := &Irrigator{BaseURL: srv.URL, HTTP: srv.Client()}
	est := ir.Estimate(context.Background(), IrrigationInput{CropType: "rice", SoilType: "loam", AreaAcres: 1})

	assert.Equal(t, "rules", est.Source)
	assert.InDelta(t, 6000, est.Liters, 0.001)
	assert.NotEmpty(t, est.Note)
}

func TestEstimateWithoutModelURL(t *testing.T) {
	ir := &Irrigator{HTTP: &http.Client{Timeout: time.Second}}
	est := ir.Estimate(context.Background(), IrrigationInput{CropType: "wheat", SoilType: "loam", AreaAcres: 2})

	assert.Equal(t, "rules", est.Source)
	assert.InDelta(t, 8000, est.Liters, 0.001)
}

func TestEstimateRejectsNonPositiveModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"liters_required": 0}`))
	}))
	defer srv.Close()

	ir := &Irrigator{BaseURL: srv.URL, HTTP: srv.Client()}
	est := ir.Estimate(context.Background(), IrrigationInput{CropType: "maize", SoilType: "loam", AreaAcres: 1})

	assert.Equal(t, "rules", est.Source)
}
