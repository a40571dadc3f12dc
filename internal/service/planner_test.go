package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	raw := `{"schedules":[{"date":"2026-09-02","time":"06:00 AM","duration":"30 min","water_liters":4000}],"notes":"water before sunrise"}`
	plan, err := parsePlan(raw)
	require.NoError(t, err)

	require.Len(t, plan.Schedules, 1)
	s := plan.Schedules[0]
	assert.Equal(t, "2026-09-02", s.Date)
	assert.Equal(t, "06:00 AM", s.Time)
	assert.InDelta(t, 4000, s.WaterLiters, 0.001)
	assert.True(t, s.Enabled, "omitted is_enabled defaults to true")
	assert.Equal(t, "water before sunrise", plan.Notes)
}

func TestParsePlanStripsCodeFence(t *testing.T) {
	raw := "Here is your plan:\n```json\n{\"schedules\":[{\"date\":\"2026-09-02\",\"time\":\"06:00 AM\",\"is_enabled\":false}]}\n```"
	plan, err := parsePlan(raw)
	require.NoError(t, err)
	require.Len(t, plan.Schedules, 1)
	assert.False(t, plan.Schedules[0].Enabled)
}

func TestParsePlanSkipsIncompleteSlots(t *testing.T) {
	raw := `{"schedules":[{"date":"","time":"06:00 AM"},{"date":"2026-09-02","time":"06:00 AM"}]}`
	plan, err := parsePlan(raw)
	require.NoError(t, err)
	assert.Len(t, plan.Schedules, 1)
}

func TestParsePlanRejectsUnusableReplies(t *testing.T) {
	_, err := parsePlan("I cannot produce a schedule right now, sorry.")
	assert.Error(t, err)

	_, err = parsePlan(`{"schedules":[]}`)
	assert.Error(t, err)
}
