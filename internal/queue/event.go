// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityRecordedEvent is published whenever a user action worth
// surfacing in the activity feed completes: a saved disease
// prediction, an irrigation estimate or an assistant exchange. It
// carries enough information for downstream consumers to log or
// notify without querying the primary database.
type ActivityRecordedEvent struct {
	UserID     uint64  `json:"user_id"`
	Kind       string  `json:"kind"` // disease | irrigation | assistant
	Title      string  `json:"title"`
	Details    string  `json:"details,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Liters     float64 `json:"water_liters,omitempty"`
	RecordedAt string  `json:"recorded_at"`
}
