package repository

import (
	"context"
	"database/sql"

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
)

// AssistantRepo stores conversational exchanges with the assistant.
type AssistantRepo struct{ DB *sql.DB }

func NewAssistantRepo(db *sql.DB) *AssistantRepo { return &AssistantRepo{DB: db} }

// Create inserts an assistant query row and returns its ID.
func (r *AssistantRepo) Create(ctx context.Context, q *model.AssistantQuery) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO assistant_queries (user_id, query_type, user_input, assistant_response, language, audio_url) VALUES (?,?,?,?,?,NULLIF(?,''))",
		q.UserID, q.QueryType, q.UserInput, q.Response, q.Language, q.AudioURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns the most recent exchanges for a user, newest first.
func (r *AssistantRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.AssistantQuery, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, query_type, user_input, assistant_response, language, COALESCE(audio_url,''), created_at FROM assistant_queries WHERE user_id=? ORDER BY created_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AssistantQuery
	for rows.Next() {
		var q model.AssistantQuery
		if err := rows.Scan(&q.ID, &q.UserID, &q.QueryType, &q.UserInput, &q.Response, &q.Language, &q.AudioURL, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
