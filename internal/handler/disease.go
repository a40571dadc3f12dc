package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/queue"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
	"github.com/krishibandhu/krishibandhu-backend/internal/service"
)

// maxImageBytes caps uploaded leaf photos.
const maxImageBytes = 10 << 20

// DiseaseHandler accepts a leaf image, delegates classification to
// the inference service and persists the result.
type DiseaseHandler struct {
	Classifier  *service.Classifier
	Predictions *repository.PredictionRepo
}

func NewDiseaseHandler(cl *service.Classifier, p *repository.PredictionRepo) *DiseaseHandler {
	return &DiseaseHandler{Classifier: cl, Predictions: p}
}

// Predict handles POST /disease/predict (multipart: file, crop_type).
func (h *DiseaseHandler) Predict(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file required"})
	}
	if fh.Size > maxImageBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image too large"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read image"})
	}
	defer src.Close()
	img, err := io.ReadAll(io.LimitReader(src, maxImageBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read image"})
	}
	cropType := c.FormValue("crop_type")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	result, err := h.Classifier.Predict(ctx, img, fh.Filename, cropType)
	if err != nil {
		if errors.Is(err, service.ErrClassifierUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "disease model unavailable"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "classification failed"})
	}

	probs, _ := json.Marshal(result.Probabilities)
	pred := model.CropPrediction{
		UserID:         u.ID,
		CropType:       cropType,
		PredictedClass: result.Label,
		Confidence:     result.Confidence,
		Probabilities:  string(probs),
	}
	if _, err := h.Predictions.Create(ctx, &pred); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save prediction failed"})
	}

	// Feed event is best effort; the prediction is already saved.
	_ = queue.PublishActivityRecorded(ctx, queue.ActivityRecordedEvent{
		UserID:     u.ID,
		Kind:       "disease",
		Title:      result.Label,
		Details:    cropType,
		Confidence: result.Confidence,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"filename":      fh.Filename,
		"prediction":    result.Label,
		"confidence":    result.Confidence,
		"probabilities": result.Probabilities,
	})
}

// History returns the user's recent predictions.
func (h *DiseaseHandler) History(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	preds, err := h.Predictions.ListByUser(ctx, u.ID, 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	type item struct {
		ID             uint64    `json:"id"`
		CropType       string    `json:"crop_type"`
		PredictedClass string    `json:"predicted_class"`
		Confidence     float64   `json:"confidence"`
		CreatedAt      time.Time `json:"created_at"`
	}
	out := make([]item, 0, len(preds))
	for _, p := range preds {
		out = append(out, item{p.ID, p.CropType, p.PredictedClass, p.Confidence, p.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"predictions": out})
}
