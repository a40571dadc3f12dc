package repository

import (
	"context"
	"database/sql"

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
)

// PredictionRepo stores crop disease classification results.
type PredictionRepo struct{ DB *sql.DB }

func NewPredictionRepo(db *sql.DB) *PredictionRepo { return &PredictionRepo{DB: db} }

// Create inserts a prediction row and returns its ID.
func (r *PredictionRepo) Create(ctx context.Context, p *model.CropPrediction) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO crop_predictions (user_id, crop_type, predicted_class, confidence, probabilities, details) VALUES (?,?,?,?,NULLIF(?,''),NULLIF(?,''))",
		p.UserID, p.CropType, p.PredictedClass, p.Confidence, p.Probabilities, p.Details)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns the most recent predictions for a user, newest first.
func (r *PredictionRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.CropPrediction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, crop_type, predicted_class, confidence, COALESCE(probabilities,''), COALESCE(details,''), created_at FROM crop_predictions WHERE user_id=? ORDER BY created_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CropPrediction
	for rows.Next() {
		var p model.CropPrediction
		if err := rows.Scan(&p.ID, &p.UserID, &p.CropType, &p.PredictedClass, &p.Confidence, &p.Probabilities, &p.Details, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
