package model

import "time"

// CropPrediction records the outcome of a disease classification
// request. Probabilities holds the raw class distribution as a JSON
// string so the frontend can render it without another round trip.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who submitted the image.
//  CropType       – crop the image belongs to (e.g. "rice").
//  PredictedClass – label returned by the classifier.
//  Confidence     – confidence of the predicted class (0..1).
//  Probabilities  – JSON object of class -> probability (nullable).
//  Details        – free-form notes or model remarks.
//  CreatedAt      – timestamp of the prediction.
type CropPrediction struct {
	ID             uint64    // crop_predictions.id
	UserID         uint64    // crop_predictions.user_id
	CropType       string    // crop_predictions.crop_type
	PredictedClass string    // crop_predictions.predicted_class
	Confidence     float64   // crop_predictions.confidence
	Probabilities  string    // crop_predictions.probabilities (nullable)
	Details        string    // crop_predictions.details (nullable)
	CreatedAt      time.Time // crop_predictions.created_at
}
