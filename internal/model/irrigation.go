package model

import "time"

// IrrigationEvent logs an irrigation-related action for a user, such
// as a saved water-requirement estimate or a manual watering entry.
// The profile activity feed aggregates these rows.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user the event belongs to.
//  EventType   – e.g. "prediction_saved" or "watered".
//  Details     – short human-readable description.
//  WaterLiters – estimated or recorded water volume (0 when unknown).
//  CreatedAt   – when the event occurred.
type IrrigationEvent struct {
	ID          uint64    // irrigation_events.id
	UserID      uint64    // irrigation_events.user_id
	EventType   string    // irrigation_events.event_type
	Details     string    // irrigation_events.details
	WaterLiters float64   // irrigation_events.water_liters
	CreatedAt   time.Time // irrigation_events.created_at
}

// IrrigationSchedule is one planned watering slot. Date and Time stay
// strings ("2026-09-01", "06:00 AM") because they are display values
// chosen by the farmer or the planner, not instants to compute with.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the schedule.
//  Date        – day of the slot, YYYY-MM-DD.
//  Time        – local wall-clock time label.
//  Duration    – free-form duration label, e.g. "30 min".
//  Enabled     – disabled slots stay listed but are skipped.
//  WaterLiters – planned water volume (0 when not estimated).
//  CreatedAt   – when the slot was created.
type IrrigationSchedule struct {
	ID          uint64    // irrigation_schedules.id
	UserID      uint64    // irrigation_schedules.user_id
	Date        string    // irrigation_schedules.date
	Time        string    // irrigation_schedules.time
	Duration    string    // irrigation_schedules.duration
	Enabled     bool      // irrigation_schedules.is_enabled
	WaterLiters float64   // irrigation_schedules.water_liters
	CreatedAt   time.Time // irrigation_schedules.created_at
}

// WaterUsage accumulates logged watering volume per user and day.
// Rows are upserted when a "watered" event carries liters.
type WaterUsage struct {
	ID     uint64  // water_usage.id
	UserID uint64  // water_usage.user_id
	Date   string  // water_usage.date, YYYY-MM-DD
	Liters float64 // water_usage.liters
}
