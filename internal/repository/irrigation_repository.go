package repository

import (
	"context"
	"database/sql"

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
)

// IrrigationRepo stores irrigation events, planned watering schedules
// and the per-day water usage aggregate.
type IrrigationRepo struct{ DB *sql.DB }

func NewIrrigationRepo(db *sql.DB) *IrrigationRepo { return &IrrigationRepo{DB: db} }

// Create inserts an irrigation event and returns its ID.
func (r *IrrigationRepo) Create(ctx context.Context, e *model.IrrigationEvent) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO irrigation_events (user_id, event_type, details, water_liters) VALUES (?,?,?,?)",
		e.UserID, e.EventType, e.Details, e.WaterLiters)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns the most recent events for a user, newest first.
func (r *IrrigationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.IrrigationEvent, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, event_type, details, COALESCE(water_liters,0), created_at FROM irrigation_events WHERE user_id=? ORDER BY created_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IrrigationEvent
	for rows.Next() {
		var e model.IrrigationEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &e.Details, &e.WaterLiters, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateSchedule inserts a planned watering slot and returns its ID.
func (r *IrrigationRepo) CreateSchedule(ctx context.Context, s *model.IrrigationSchedule) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO irrigation_schedules (user_id, date, time, duration, is_enabled, water_liters) VALUES (?,?,?,?,?,?)",
		s.UserID, s.Date, s.Time, s.Duration, s.Enabled, s.WaterLiters)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListSchedules returns all schedules for a user ordered by date then
// time, so the upcoming slots come out in calendar order.
func (r *IrrigationRepo) ListSchedules(ctx context.Context, userID uint64) ([]model.IrrigationSchedule, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, date, time, duration, is_enabled, COALESCE(water_liters,0), created_at FROM irrigation_schedules WHERE user_id=? ORDER BY date ASC, time ASC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IrrigationSchedule
	for rows.Next() {
		var s model.IrrigationSchedule
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.Time, &s.Duration, &s.Enabled, &s.WaterLiters, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddUsage adds liters to the user's usage row for the given day,
// creating the row on first write. Upsert keeps the accumulation a
// single statement under the unique (user_id, date) key.
func (r *IrrigationRepo) AddUsage(ctx context.Context, userID uint64, date string, liters float64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO water_usage (user_id, date, liters) VALUES (?,?,?) ON DUPLICATE KEY UPDATE liters = liters + VALUES(liters)",
		userID, date, liters)
	return err
}

// ListUsage returns the most recent daily usage rows, newest day first.
func (r *IrrigationRepo) ListUsage(ctx context.Context, userID uint64, days int) ([]model.WaterUsage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, date, liters FROM water_usage WHERE user_id=? ORDER BY date DESC LIMIT ?",
		userID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WaterUsage
	for rows.Next() {
		var u model.WaterUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.Date, &u.Liters); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
